// Package engine executes GraphQL operations against a Resolver, running
// membership policy checks before field resolution (field-level) and per
// returned object (type-level).
package engine

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/groupgate/groupgate/internal/authz"
	"github.com/groupgate/groupgate/internal/eventbus"
	"github.com/groupgate/groupgate/internal/events"
	"github.com/groupgate/groupgate/internal/identity"
	"github.com/groupgate/groupgate/internal/language"
)

// Engine executes validated query documents. It holds no per-request state
// and is safe for concurrent use.
type Engine struct {
	schema   *language.Schema
	resolver Resolver
	policies *authz.Registry
}

// New builds an engine over schema, resolving fields with resolver and
// enforcing the policies registered in policies (nil disables enforcement,
// for tests only).
func New(schema *language.Schema, resolver Resolver, policies *authz.Registry) *Engine {
	return &Engine{schema: schema, resolver: resolver, policies: policies}
}

// execState is the per-operation execution state. Errors are collected under
// a mutex because list elements complete concurrently.
type execState struct {
	engine   *Engine
	doc      *language.QueryDocument
	vars     map[string]any
	identity identity.Identity

	mu     sync.Mutex
	errors []GraphQLError
}

// Execute runs one operation from doc and returns the response envelope. The
// caller identity is read from ctx; anonymous execution is allowed and fails
// only at policy-protected nodes.
func (e *Engine) Execute(ctx context.Context, doc *language.QueryDocument, operationName string, variables map[string]any) *Result {
	op := operationFor(doc, operationName)
	if op == nil {
		return &Result{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	vars, err := coerceVariableValues(e.schema, op, variables)
	if err != nil {
		return &Result{Errors: []GraphQLError{{
			Message:    err.Error(),
			Extensions: map[string]any{"code": CodeBadUserInput},
		}}}
	}

	var rootDef *language.Definition
	switch op.Operation {
	case language.Query:
		rootDef = e.schema.Query
	case language.Mutation:
		rootDef = e.schema.Mutation
	default:
		return &Result{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", op.Operation)}}}
	}
	if rootDef == nil {
		return &Result{Errors: []GraphQLError{{Message: fmt.Sprintf("schema has no %s type", op.Operation)}}}
	}

	id := identity.FromContext(ctx)
	state := &execState{engine: e, doc: doc, vars: vars, identity: id}

	data, _ := state.executeSelectionSet(ctx, rootDef, op.SelectionSet, nil, nil)
	return &Result{Data: data, Errors: state.errors}
}

// executeSelectionSet resolves one object's selection set. The second return
// is false when a non-null field resolved to null and the whole object must
// collapse to null at the parent.
func (st *execState) executeSelectionSet(ctx context.Context, def *language.Definition, selectionSet language.SelectionSet, source any, path []any) (map[string]any, bool) {
	grouped := collectFields(st, def, selectionSet)
	result := make(map[string]any, len(grouped))

	for _, cf := range grouped {
		fieldPath := appendPath(path, cf.ResponseName)
		field := cf.Fields[0]

		if field.Name == "__typename" {
			result[cf.ResponseName] = def.Name
			continue
		}

		fieldDef := def.Fields.ForName(field.Name)
		if fieldDef == nil {
			st.addError(GraphQLError{
				Message: fmt.Sprintf("cannot query field %q on type %q", field.Name, def.Name),
				Path:    fieldPath,
			})
			continue
		}

		value := st.executeField(ctx, def, fieldDef, cf.Fields, source, fieldPath)

		if fieldDef.Type.NonNull && isNullish(value) {
			if len(path) > 0 {
				return nil, false
			}
			// Root fields do not propagate; sibling root fields still run.
			result[cf.ResponseName] = nil
			continue
		}
		if isNullish(value) {
			result[cf.ResponseName] = nil
		} else {
			result[cf.ResponseName] = value
		}
	}

	return result, true
}

// executeField runs the field-level policy check, resolves the field, and
// completes its value.
func (st *execState) executeField(ctx context.Context, parentDef *language.Definition, fieldDef *language.FieldDefinition, fields []*language.Field, source any, path []any) any {
	if err := ctx.Err(); err != nil {
		st.addError(GraphQLError{Message: err.Error(), Path: path, Extensions: map[string]any{"code": CodeInternal}})
		return nil
	}

	args := coerceArgumentValues(st, fieldDef, fields[0].Arguments, path)

	if exec := st.engine.policies.ExecutorFor(parentDef.Name, fieldDef.Name); exec != nil {
		// A field-level failure suppresses resolution entirely, so it is
		// also the error surfaced when a type-level check would have
		// applied to the same node (see authz.Combine).
		if !st.checkPolicy(ctx, exec, authz.Request{Identity: st.identity, Args: args}, path) {
			return nil
		}
	}

	value, err := st.engine.resolver.ResolveField(ctx, parentDef.Name, fieldDef.Name, source, args)
	if err != nil {
		st.addError(GraphQLError{Message: err.Error(), Path: path, Extensions: map[string]any{"code": codeFor(err)}})
		return nil
	}

	return st.completeValue(ctx, fieldDef.Type, fields, value, path)
}

// completeValue completes a resolved value against its declared type,
// recording an error when null reaches a non-null position.
func (st *execState) completeValue(ctx context.Context, t *language.Type, fields []*language.Field, value any, path []any) any {
	if isNullish(value) {
		if t.NonNull {
			st.addError(GraphQLError{
				Message: fmt.Sprintf("cannot return null for non-nullable field %s", pathString(path)),
				Path:    path,
			})
		}
		return nil
	}

	if t.Elem != nil {
		return st.completeListValue(ctx, t, fields, value, path)
	}

	def := st.engine.schema.Types[t.NamedType]
	if def == nil {
		st.addError(GraphQLError{Message: fmt.Sprintf("unknown type %q", t.NamedType), Path: path})
		return nil
	}

	switch def.Kind {
	case language.Scalar, language.Enum:
		return serializeLeaf(value)
	case language.Object:
		return st.completeObjectValue(ctx, def, fields, value, path)
	default:
		st.addError(GraphQLError{Message: fmt.Sprintf("cannot complete value of kind %s", def.Kind), Path: path})
		return nil
	}
}

// completeListValue completes list elements concurrently: type-level checks
// over a list of N rows each cost a membership lookup, and those are
// independent I/O.
func (st *execState) completeListValue(ctx context.Context, t *language.Type, fields []*language.Field, value any, path []any) any {
	items, ok := toSlice(value)
	if !ok {
		st.addError(GraphQLError{Message: fmt.Sprintf("expected list value, got %T", value), Path: path})
		return nil
	}

	completed := make([]any, len(items))
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			completed[i] = st.completeValue(gctx, t.Elem, fields, item, appendPath(path, i))
			return nil
		})
	}
	_ = g.Wait()

	if t.Elem.NonNull {
		for _, v := range completed {
			if isNullish(v) {
				// The element's error is already recorded; null the list.
				return nil
			}
		}
	}
	return completed
}

// completeObjectValue runs the type-level policy check for the concrete row,
// then executes the sub-selection.
func (st *execState) completeObjectValue(ctx context.Context, def *language.Definition, fields []*language.Field, value any, path []any) any {
	if exec := st.engine.policies.ExecutorFor(def.Name, ""); exec != nil {
		if !st.checkPolicy(ctx, exec, authz.Request{Identity: st.identity, Object: objectData(value)}, path) {
			return nil
		}
	}

	sub := mergeSelectionSets(fields)
	result, ok := st.executeSelectionSet(ctx, def, sub, value, path)
	if !ok {
		return nil
	}
	return result
}

func (st *execState) addError(err GraphQLError) {
	st.mu.Lock()
	st.errors = append(st.errors, err)
	st.mu.Unlock()
}

// checkPolicy runs one policy check, publishes the decision, and records the
// error on failure. It reports whether execution of the node may continue.
func (st *execState) checkPolicy(ctx context.Context, exec *authz.Executor, req authz.Request, path []any) bool {
	start := time.Now()
	err := exec.Check(ctx, req)
	eventbus.Publish(ctx, events.PolicyDecision{
		Action:   exec.Action(),
		UserID:   st.identity.ID,
		Allowed:  err == nil,
		Err:      err,
		Duration: time.Since(start),
	})
	if err != nil {
		st.addError(GraphQLError{
			Message:    err.Error(),
			Path:       path,
			Extensions: map[string]any{"code": codeFor(err)},
		})
		return false
	}
	return true
}

// objectData adapts a resolved row to the read-only view a type-level check
// sees. Unknown representations expose no fields, which the policy treats as
// the ungrouped case.
func objectData(value any) authz.ObjectData {
	switch v := value.(type) {
	case authz.ObjectData:
		return v
	case map[string]any:
		return authz.MapData(v)
	default:
		return authz.MapData(nil)
	}
}

func operationFor(doc *language.QueryDocument, name string) *language.OperationDefinition {
	if name == "" && len(doc.Operations) == 1 {
		return doc.Operations[0]
	}
	for _, op := range doc.Operations {
		if op.Name == name {
			return op
		}
	}
	return nil
}

func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

func appendPath(path []any, elem any) []any {
	next := make([]any, len(path)+1)
	copy(next, path)
	next[len(path)] = elem
	return next
}

func pathString(path []any) string {
	out := ""
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				out += "."
			}
			out += v
		case int:
			out += fmt.Sprintf("[%d]", v)
		}
	}
	return out
}

// serializeLeaf coerces scalar values into JSON-safe representations.
func serializeLeaf(value any) any {
	switch v := value.(type) {
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return nil
		}
		return v.UTC().Format(time.RFC3339)
	default:
		return value
	}
}

func toSlice(value any) ([]any, bool) {
	if direct, ok := value.([]any); ok {
		return direct, true
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

// isNullish reports nil interfaces and typed nils.
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
