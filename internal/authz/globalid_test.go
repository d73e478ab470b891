package authz

import (
	"encoding/base64"
	"errors"
	"testing"
)

func encode(typeName, id string) string {
	return base64.StdEncoding.EncodeToString([]byte(typeName + ":" + id))
}

func TestGlobalIDRoundTrip(t *testing.T) {
	cases := []GlobalID{
		{Type: "Group", ID: "4f5b8f7e-9e1d-4e9b-8a93-0b1f6f1c2d3e"},
		{Type: "Resource", ID: "1"},
		{Type: "T", ID: "id:with:colons"},
	}
	for _, want := range cases {
		got, err := DecodeGlobalID(want.String())
		if err != nil {
			t.Fatalf("DecodeGlobalID(%v): %v", want, err)
		}
		if got != want {
			t.Fatalf("round trip: got %v want %v", got, want)
		}
	}
}

func TestDecodeGlobalIDMalformed(t *testing.T) {
	for _, s := range []string{
		"%%%not-base64%%%",
		base64.StdEncoding.EncodeToString([]byte("no-colon")),
		encode("Group", ""),
		encode("", "abc"),
	} {
		if _, err := DecodeGlobalID(s); !errors.Is(err, ErrMalformedIdentifier) {
			t.Fatalf("DecodeGlobalID(%q): want ErrMalformedIdentifier, got %v", s, err)
		}
	}
}

func TestRefRawIDShapes(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"typed", GlobalID{Type: "Group", ID: "g-1"}, "g-1"},
		{"typed pointer", &GlobalID{Type: "Group", ID: "g-2"}, "g-2"},
		{"encoded", encode("Group", "g-3"), "g-3"},
		{"encoded with colons in id", encode("Group", "a:b"), "a:b"},
		{"raw uuid", "0d4cdc3b-55f0-4015-8d7c-19e071e8d23c", "0d4cdc3b-55f0-4015-8d7c-19e071e8d23c"},
		// Valid base64 that decodes to colon-less bytes: still a raw id.
		{"base64-looking raw", "abcd", "abcd"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ref, present, err := ParseRef(tc.value)
			if err != nil || !present {
				t.Fatalf("ParseRef(%v) = present=%v err=%v", tc.value, present, err)
			}
			got, err := ref.RawID()
			if err != nil {
				t.Fatalf("RawID: %v", err)
			}
			if got != tc.want {
				t.Fatalf("RawID = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseRefMalformedEncoded(t *testing.T) {
	// Both decode to a colon-separated value with an empty half: they claim
	// the encoded shape but are broken, so the raw-id fallback must not
	// swallow them.
	for _, s := range []string{encode("Group", ""), encode("", "abc")} {
		if _, _, err := ParseRef(s); !errors.Is(err, ErrMalformedIdentifier) {
			t.Fatalf("ParseRef(%q): want ErrMalformedIdentifier, got %v", s, err)
		}
	}
}

func TestParseRefAbsent(t *testing.T) {
	for _, v := range []any{nil, "", (*GlobalID)(nil)} {
		if _, present, err := ParseRef(v); present || err != nil {
			t.Fatalf("ParseRef(%v) = present=%v err=%v, want absent without error", v, present, err)
		}
	}
}

func TestParseRefUnsupportedType(t *testing.T) {
	if _, _, err := ParseRef(42); !errors.Is(err, ErrMalformedIdentifier) {
		t.Fatalf("want ErrMalformedIdentifier for int value, got %v", err)
	}
}
