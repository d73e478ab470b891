package schema

import (
	"testing"

	"github.com/groupgate/groupgate/internal/authz"
)

func TestLoad(t *testing.T) {
	sch, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sch.Query == nil || sch.Mutation == nil {
		t.Fatal("schema must define Query and Mutation")
	}
}

func TestDirectivePlacements(t *testing.T) {
	sch, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	cfg, ok := authz.LookupDirective(sch, "Query", "group")
	if !ok {
		t.Fatal("Query.group must be protected")
	}
	if cfg.GroupIDField != "id" {
		t.Fatalf("Query.group groupIdField = %q", cfg.GroupIDField)
	}

	cfg, ok = authz.LookupDirective(sch, "Resource", "")
	if !ok {
		t.Fatal("Resource must carry the type-level directive")
	}
	if cfg.GroupIDField != authz.DefaultGroupIDField {
		t.Fatalf("Resource groupIdField = %q", cfg.GroupIDField)
	}

	if _, ok := authz.LookupDirective(sch, "Mutation", "createGroup"); ok {
		t.Fatal("createGroup must not require membership")
	}
}
