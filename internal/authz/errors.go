package authz

import (
	"errors"
	"fmt"
)

// Sentinel errors for the ways a policy check can end other than a clean
// allow. A denied check is represented by *AccessDenied so the denial message
// can name the action; everything here distinguishes "the caller is not
// authorized" from "the authorization system could not answer".
var (
	// ErrAuthenticationRequired means no identity was established for the
	// request at all. Always fatal to the check, never retried here.
	ErrAuthenticationRequired = errors.New("authz: authentication required")

	// ErrMembershipCheckFailed means the membership store could not complete
	// the lookup. A backend outage must never resolve to an allow, so this is
	// kept strictly distinct from AccessDenied.
	ErrMembershipCheckFailed = errors.New("authz: membership check failed")

	// ErrMalformedIdentifier means a group identifier was present but not
	// parseable. Never silently coerced to "no identifier".
	ErrMalformedIdentifier = errors.New("authz: malformed identifier")
)

// AccessDenied is the definitive "membership check returned false" outcome.
type AccessDenied struct {
	// Action names what was denied, e.g. "Query.group" or "Resource".
	Action string
	// GroupID is the raw id of the group the caller is not a member of.
	GroupID string
}

func (e *AccessDenied) Error() string {
	return fmt.Sprintf("resolving %s: not a member of group %s", e.Action, e.GroupID)
}

// IsAccessDenied reports whether err is a definitive denial (as opposed to a
// failed or misconfigured check).
func IsAccessDenied(err error) bool {
	var d *AccessDenied
	return errors.As(err, &d)
}

// Combine merges the outcomes of a field-level and a type-level check that
// apply to the same response node. When both fail, the field-level outcome is
// the one surfaced to the caller.
func Combine(fieldErr, typeErr error) error {
	if fieldErr != nil {
		return fieldErr
	}
	return typeErr
}
