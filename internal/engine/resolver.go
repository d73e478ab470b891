package engine

import "context"

// Resolver supplies field values to the engine.
//
//   - objectType is the GraphQL type name (e.g. "Group"); for root fields it
//     is the root operation type name ("Query", "Mutation").
//   - field is the field name on that type.
//   - source is the parent object value (nil for root fields); resolvers
//     producing objects return map[string]any rows keyed by field name.
//   - args maps argument names to already-coerced Go values.
//
// Implementations must be safe for concurrent use, must not mutate source or
// args, and must respect ctx: field resolution is where the engine reaches
// the database. Returning (nil, nil) produces a GraphQL null for nullable
// fields.
type Resolver interface {
	ResolveField(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error)

func (f ResolverFunc) ResolveField(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	return f(ctx, objectType, field, source, args)
}
