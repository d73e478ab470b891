package authz

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// GlobalID is the opaque identifier used at the API boundary. Its wire form
// is base64("TypeName:rawId"), combining a type tag with the raw storage id
// so ids of different types cannot be confused.
type GlobalID struct {
	Type string
	ID   string
}

// String renders the encoded wire form.
func (g GlobalID) String() string {
	return base64.StdEncoding.EncodeToString([]byte(g.Type + ":" + g.ID))
}

// DecodeGlobalID strictly decodes the wire form. Unlike ParseRef it treats
// any undecodable input as an error; use it where the value is known to be an
// encoded id (e.g. typed ID scalars at the resolver boundary).
func DecodeGlobalID(s string) (GlobalID, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return GlobalID{}, fmt.Errorf("%w: %q is not base64", ErrMalformedIdentifier, s)
	}
	name, id, ok := strings.Cut(string(b), ":")
	if !ok || name == "" || id == "" {
		return GlobalID{}, fmt.Errorf("%w: %q does not decode to type:id", ErrMalformedIdentifier, s)
	}
	return GlobalID{Type: name, ID: id}, nil
}

// refKind tags the three shapes a group identifier arrives in. Which shape a
// value takes depends on the execution stage: policy checks run before
// arguments are deserialized into typed ids, so the same identifier can show
// up as a GlobalID value, an encoded string, or a bare raw id.
type refKind int

const (
	refTyped refKind = iota
	refEncoded
	refRaw
)

// Ref is a group identifier normalized into exactly one of the three shapes.
// The zero Ref is not valid; obtain one from ParseRef.
type Ref struct {
	kind  refKind
	typed GlobalID // refTyped and refEncoded
	raw   string   // refRaw
}

// ParseRef normalizes an argument or object-field value into a Ref. The
// second return is false when the value is absent (nil or empty string),
// a distinct, valid state meaning "no identifier supplied" that callers
// must not conflate with a malformed identifier.
//
// For string values the classification is: a string that base64-decodes to a
// "Type:id" pair is an encoded global id; a string that decodes but contains
// no colon, or does not decode at all, is taken to already be a raw id (the
// defensive fallback for callers that bypass the encoding layer); a string
// that decodes to a colon-separated value with an empty half claims the
// encoded shape but is broken, and fails with ErrMalformedIdentifier.
func ParseRef(v any) (Ref, bool, error) {
	switch v := v.(type) {
	case nil:
		return Ref{}, false, nil
	case GlobalID:
		return Ref{kind: refTyped, typed: v}, true, nil
	case *GlobalID:
		if v == nil {
			return Ref{}, false, nil
		}
		return Ref{kind: refTyped, typed: *v}, true, nil
	case string:
		if v == "" {
			return Ref{}, false, nil
		}
		return classifyString(v)
	default:
		return Ref{}, false, fmt.Errorf("%w: unsupported identifier value of type %T", ErrMalformedIdentifier, v)
	}
}

func classifyString(s string) (Ref, bool, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return Ref{kind: refRaw, raw: s}, true, nil
	}
	decoded := string(b)
	if !strings.Contains(decoded, ":") {
		return Ref{kind: refRaw, raw: s}, true, nil
	}
	name, id, _ := strings.Cut(decoded, ":")
	if name == "" || id == "" {
		return Ref{}, false, fmt.Errorf("%w: %q does not decode to type:id", ErrMalformedIdentifier, s)
	}
	return Ref{kind: refEncoded, typed: GlobalID{Type: name, ID: id}}, true, nil
}

// RawID resolves the reference to the raw storage-layer id. The switch is
// exhaustive over the three shapes ParseRef produces.
func (r Ref) RawID() (string, error) {
	switch r.kind {
	case refTyped, refEncoded:
		if r.typed.ID == "" {
			return "", fmt.Errorf("%w: typed identifier has empty id", ErrMalformedIdentifier)
		}
		return r.typed.ID, nil
	case refRaw:
		return r.raw, nil
	default:
		return "", fmt.Errorf("%w: empty identifier reference", ErrMalformedIdentifier)
	}
}
