// Package schema ships the GraphQL SDL for the gateway and loads it into an
// executable schema.
package schema

import (
	_ "embed"

	"github.com/groupgate/groupgate/internal/language"
)

//go:embed schema.graphql
var sdl string

// SDL returns the raw schema document, as served for introspection tooling.
func SDL() string {
	return sdl
}

// Load parses and validates the embedded schema.
func Load() (*language.Schema, error) {
	return language.LoadSchema("schema.graphql", sdl)
}
