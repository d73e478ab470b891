package authz

import (
	"testing"

	"github.com/groupgate/groupgate/internal/language"
)

func loadSchema(t *testing.T, sdl string) *language.Schema {
	t.Helper()
	sch, err := language.LoadSchema("test.graphql", sdl)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	return sch
}

func TestLookupDirective(t *testing.T) {
	sch := loadSchema(t, testSDL)

	cfg, ok := LookupDirective(sch, "Query", "group")
	if !ok {
		t.Fatal("Query.group carries the directive")
	}
	if cfg.GroupIDField != "id" {
		t.Fatalf("GroupIDField = %q, want id", cfg.GroupIDField)
	}

	cfg, ok = LookupDirective(sch, "Query", "resources")
	if !ok || cfg.GroupIDField != DefaultGroupIDField {
		t.Fatalf("Query.resources: ok=%v cfg=%+v, want default field", ok, cfg)
	}

	cfg, ok = LookupDirective(sch, "Resource", "")
	if !ok || cfg.GroupIDField != DefaultGroupIDField {
		t.Fatalf("Resource type-level: ok=%v cfg=%+v", ok, cfg)
	}
}

func TestLookupDirectiveAbsent(t *testing.T) {
	sch := loadSchema(t, testSDL)

	for _, tc := range []struct{ typeName, fieldName string }{
		{"Query", "myGroups"},
		{"Group", ""},
		{"Group", "name"},
		{"NoSuchType", ""},
		{"Query", "noSuchField"},
	} {
		if _, ok := LookupDirective(sch, tc.typeName, tc.fieldName); ok {
			t.Fatalf("LookupDirective(%s, %s) should be absent", tc.typeName, tc.fieldName)
		}
	}
}

// A wrong-typed configuration argument degrades to the default field name
// instead of failing at request time.
func TestLookupDirectiveBadArgumentFallsBack(t *testing.T) {
	sdl := `
directive @requiresGroupMembership(groupIdField: String = "groupId") on OBJECT | FIELD_DEFINITION
type Query {
  things: [Thing]
}
type Thing @requiresGroupMembership(groupIdField: "") {
  id: ID!
  groupId: ID
}
`
	sch := loadSchema(t, sdl)
	cfg, ok := LookupDirective(sch, "Thing", "")
	if !ok {
		t.Fatal("directive should be found")
	}
	if cfg.GroupIDField != DefaultGroupIDField {
		t.Fatalf("GroupIDField = %q, want fallback to default", cfg.GroupIDField)
	}
}
