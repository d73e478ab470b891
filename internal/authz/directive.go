package authz

import (
	"github.com/groupgate/groupgate/internal/language"
)

// DirectiveName is the schema directive that attaches a membership policy to
// a type or field.
const DirectiveName = "requiresGroupMembership"

// DefaultGroupIDField is the field/argument consulted for the group id when
// the directive does not configure one.
const DefaultGroupIDField = "groupId"

const argGroupIDField = "groupIdField"

// DirectiveConfig is the extracted configuration of one directive use.
type DirectiveConfig struct {
	// GroupIDField names the argument (field-level) or object field
	// (type-level) that carries the group identifier.
	GroupIDField string
}

// LookupDirective reports whether the policy directive is attached to the
// given type (fieldName == "") or field, and extracts its configuration.
//
// Absence is the overwhelmingly common case and returns (zero, false) without
// allocating. A directive whose groupIdField argument is present but not a
// string degrades to the default rather than failing: directive misconfig is
// a schema-load concern and must not crash requests.
func LookupDirective(sch *language.Schema, typeName, fieldName string) (DirectiveConfig, bool) {
	def := sch.Types[typeName]
	if def == nil {
		return DirectiveConfig{}, false
	}

	var dir *language.Directive
	if fieldName == "" {
		dir = def.Directives.ForName(DirectiveName)
	} else {
		fd := def.Fields.ForName(fieldName)
		if fd == nil {
			return DirectiveConfig{}, false
		}
		dir = fd.Directives.ForName(DirectiveName)
	}
	if dir == nil {
		return DirectiveConfig{}, false
	}

	cfg := DirectiveConfig{GroupIDField: DefaultGroupIDField}
	if arg := dir.Arguments.ForName(argGroupIDField); arg != nil && arg.Value != nil {
		switch arg.Value.Kind {
		case language.StringValue, language.BlockValue:
			if arg.Value.Raw != "" {
				cfg.GroupIDField = arg.Value.Raw
			}
		}
	}
	return cfg, true
}
