package engine

import (
	"context"
	"errors"

	"github.com/groupgate/groupgate/internal/authz"
)

// Result is the outcome of executing one GraphQL operation.
type Result struct {
	Data   map[string]any `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// GraphQLError is a located error in the response envelope.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string { return e.Message }

// Machine-readable error codes surfaced in extensions.code. Keeping denial,
// authentication, and authorization-system-failure distinct lets operators
// tell "the user is unauthorized" apart from "the authorization system is
// unhealthy".
const (
	CodeForbidden        = "FORBIDDEN"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeAuthzUnavailable = "AUTHORIZATION_UNAVAILABLE"
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeInternal         = "INTERNAL"
)

func codeFor(err error) string {
	switch {
	case authz.IsAccessDenied(err):
		return CodeForbidden
	case errors.Is(err, authz.ErrAuthenticationRequired):
		return CodeUnauthenticated
	case errors.Is(err, authz.ErrMembershipCheckFailed):
		return CodeAuthzUnavailable
	case errors.Is(err, authz.ErrMalformedIdentifier):
		return CodeBadUserInput
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeInternal
	default:
		return CodeInternal
	}
}
