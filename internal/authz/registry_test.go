package authz

import (
	"context"
	"strings"
	"testing"

	"github.com/groupgate/groupgate/internal/language"
)

func TestRegistryLookup(t *testing.T) {
	reg := buildTestRegistry(t, &fakeOracle{}, &fakeResources{})

	if reg.ExecutorFor("Query", "group") == nil {
		t.Fatal("Query.group should have an executor")
	}
	if reg.ExecutorFor("Resource", "") == nil {
		t.Fatal("Resource should have a type-level executor")
	}
	if reg.ExecutorFor("Query", "myGroups") != nil {
		t.Fatal("Query.myGroups carries no directive")
	}
	if reg.ExecutorFor("Group", "") != nil {
		t.Fatal("Group carries no type-level directive")
	}
	if reg.ExecutorFor("NoSuchType", "x") != nil {
		t.Fatal("unknown type should have no executor")
	}
}

func TestRegistryIsIdempotent(t *testing.T) {
	sch, err := language.LoadSchema("test.graphql", testSDL)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	oracle := &fakeOracle{}
	a, err := BuildRegistry(sch, oracle, &fakeResources{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := BuildRegistry(sch, oracle, &fakeResources{})
	if err != nil {
		t.Fatal(err)
	}
	if a.Len() != b.Len() {
		t.Fatalf("registry sizes differ: %d vs %d", a.Len(), b.Len())
	}
	if oracle.calls != 0 {
		t.Fatal("building the registry must not consult the oracle")
	}
}

// A type-level directive pointing at a field the type does not have fails at
// build time instead of silently never checking anything.
func TestRegistryRejectsMisconfiguredTypeDirective(t *testing.T) {
	sdl := `
directive @requiresGroupMembership(groupIdField: String = "groupId") on OBJECT | FIELD_DEFINITION
type Query { item: Item }
type Item @requiresGroupMembership(groupIdField: "teamId") {
  id: ID!
  groupId: ID
}
`
	sch, err := language.LoadSchema("bad.graphql", sdl)
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}
	_, err = BuildRegistry(sch, &fakeOracle{}, &fakeResources{})
	if err == nil {
		t.Fatal("want build error for unknown group-id field")
	}
	if !strings.Contains(err.Error(), "teamId") {
		t.Fatalf("error %q should name the missing field", err.Error())
	}
}

func TestMemoizedCachesWithinRequest(t *testing.T) {
	oracle := &fakeOracle{members: map[string]bool{"alice/g-1": true}}
	memo := Memoized{Next: oracle}
	ctx := WithRequestScope(context.Background())

	for i := 0; i < 3; i++ {
		ok, err := memo.IsMember(ctx, "alice", "g-1")
		if err != nil || !ok {
			t.Fatalf("IsMember = %v, %v", ok, err)
		}
	}
	if oracle.calls != 1 {
		t.Fatalf("oracle called %d times, want 1", oracle.calls)
	}

	// Negative answers are cached too.
	for i := 0; i < 2; i++ {
		ok, err := memo.IsMember(ctx, "bob", "g-1")
		if err != nil || ok {
			t.Fatalf("IsMember = %v, %v", ok, err)
		}
	}
	if oracle.calls != 2 {
		t.Fatalf("oracle called %d times, want 2", oracle.calls)
	}

	// A fresh request scope starts empty.
	if ok, err := memo.IsMember(WithRequestScope(context.Background()), "alice", "g-1"); err != nil || !ok {
		t.Fatalf("IsMember = %v, %v", ok, err)
	}
	if oracle.calls != 3 {
		t.Fatalf("memo leaked across requests; oracle called %d times", oracle.calls)
	}
}

func TestMemoizedPassThroughWithoutScope(t *testing.T) {
	oracle := &fakeOracle{members: map[string]bool{"alice/g-1": true}}
	memo := Memoized{Next: oracle}

	for i := 0; i < 2; i++ {
		if ok, err := memo.IsMember(context.Background(), "alice", "g-1"); err != nil || !ok {
			t.Fatalf("IsMember = %v, %v", ok, err)
		}
	}
	if oracle.calls != 2 {
		t.Fatalf("unscoped lookups must pass through; oracle called %d times", oracle.calls)
	}
}

func TestMemoizedDoesNotCacheErrors(t *testing.T) {
	oracle := &fakeOracle{err: context.DeadlineExceeded}
	memo := Memoized{Next: oracle}
	ctx := WithRequestScope(context.Background())

	for i := 0; i < 2; i++ {
		if _, err := memo.IsMember(ctx, "alice", "g-1"); err == nil {
			t.Fatal("want error")
		}
	}
	if oracle.calls != 2 {
		t.Fatalf("errors must not be cached; oracle called %d times", oracle.calls)
	}
}
