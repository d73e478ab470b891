package engine

import (
	"github.com/groupgate/groupgate/internal/language"
)

// collectedField groups all query fields sharing one response name.
type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

// collectFields flattens a selection set into response-ordered field groups,
// expanding fragments and honoring @skip/@include.
func collectFields(st *execState, def *language.Definition, selectionSet language.SelectionSet) []collectedField {
	var ordered []collectedField
	index := make(map[string]int)
	visited := make(map[string]bool)

	var walk func(selectionSet language.SelectionSet)
	walk = func(selectionSet language.SelectionSet) {
		for _, selection := range selectionSet {
			switch sel := selection.(type) {
			case *language.Field:
				if !includeNode(st, sel.Directives) {
					continue
				}
				name := sel.Alias
				if name == "" {
					name = sel.Name
				}
				if i, ok := index[name]; ok {
					ordered[i].Fields = append(ordered[i].Fields, sel)
				} else {
					index[name] = len(ordered)
					ordered = append(ordered, collectedField{ResponseName: name, Fields: []*language.Field{sel}})
				}

			case *language.InlineFragment:
				if !includeNode(st, sel.Directives) {
					continue
				}
				if sel.TypeCondition != "" && sel.TypeCondition != def.Name {
					continue
				}
				walk(sel.SelectionSet)

			case *language.FragmentSpread:
				if !includeNode(st, sel.Directives) {
					continue
				}
				if visited[sel.Name] {
					continue
				}
				visited[sel.Name] = true
				frag := st.doc.Fragments.ForName(sel.Name)
				if frag == nil {
					continue
				}
				if frag.TypeCondition != "" && frag.TypeCondition != def.Name {
					continue
				}
				if !includeNode(st, frag.Directives) {
					continue
				}
				walk(frag.SelectionSet)
			}
		}
	}
	walk(selectionSet)

	return ordered
}

// includeNode applies the built-in @skip and @include directives.
func includeNode(st *execState, directives language.DirectiveList) bool {
	if skip := directives.ForName("skip"); skip != nil {
		if v, ok := directiveBool(st, skip, "if"); ok && v {
			return false
		}
	}
	if include := directives.ForName("include"); include != nil {
		if v, ok := directiveBool(st, include, "if"); ok && !v {
			return false
		}
	}
	return true
}

func directiveBool(st *execState, directive *language.Directive, argName string) (bool, bool) {
	arg := directive.Arguments.ForName(argName)
	if arg == nil {
		return false, false
	}
	v, ok := astValueToGo(arg.Value, st.vars).(bool)
	return v, ok
}
