package authz

import (
	"fmt"
	"strings"

	"github.com/groupgate/groupgate/internal/language"
)

type registryKey struct {
	typeName  string
	fieldName string // empty for type-level entries
}

// Registry maps (type, field) to a configured policy executor. It is built
// once by walking the schema at startup, then read concurrently by the engine
// for the lifetime of the process.
type Registry struct {
	execs map[registryKey]*Executor
}

// BuildRegistry walks sch and returns an executor for every use of the
// policy directive, binding each to the given oracle and resource lookup.
// It is side-effect free and safe to call repeatedly with the same inputs.
//
// A type-level directive whose configured group-id field does not exist on
// the annotated type is a build error: silently no-opping such a policy would
// leave the type unprotected, so misconfiguration fails fast here instead.
func BuildRegistry(sch *language.Schema, oracle MembershipOracle, resources ResourceLookup) (*Registry, error) {
	r := &Registry{execs: make(map[registryKey]*Executor)}

	for name, def := range sch.Types {
		if def.Kind != language.Object || strings.HasPrefix(name, "__") {
			continue
		}

		if cfg, ok := LookupDirective(sch, name, ""); ok {
			if def.Fields.ForName(cfg.GroupIDField) == nil {
				return nil, fmt.Errorf(
					"authz: @%s on type %s names group-id field %q, which %s does not have",
					DirectiveName, name, cfg.GroupIDField, name)
			}
			r.execs[registryKey{typeName: name}] = &Executor{
				typeName:     name,
				groupIDField: cfg.GroupIDField,
				oracle:       oracle,
				resources:    resources,
			}
		}

		for _, fd := range def.Fields {
			cfg, ok := LookupDirective(sch, name, fd.Name)
			if !ok {
				continue
			}
			r.execs[registryKey{typeName: name, fieldName: fd.Name}] = &Executor{
				typeName:     name,
				fieldName:    fd.Name,
				groupIDField: cfg.GroupIDField,
				oracle:       oracle,
				resources:    resources,
			}
		}
	}

	return r, nil
}

// ExecutorFor returns the executor registered for the given field, or nil
// when the field carries no policy. Pass an empty fieldName for the
// type-level executor.
func (r *Registry) ExecutorFor(typeName, fieldName string) *Executor {
	if r == nil {
		return nil
	}
	return r.execs[registryKey{typeName: typeName, fieldName: fieldName}]
}

// Len reports how many executors the registry holds.
func (r *Registry) Len() int { return len(r.execs) }
