package authz

import "context"

// MembershipOracle answers "is user U a member of group G?" against the
// membership store.
//
// Implementations must query through a data-access path scoped to the caller
// identity, so the answer stays consistent with the row-level security the
// store itself enforces. They must be safe for concurrent use and hold no
// per-request mutable state; the lookup is I/O and must respect ctx.
type MembershipOracle interface {
	IsMember(ctx context.Context, userID, groupID string) (bool, error)
}

// ResourceLookup fetches the stored group of an existing group-scoped
// resource, for checks on mutations that identify the resource rather than
// the group ("update resource #X").
//
// hasGroup is false when the resource exists but is ungrouped (the legacy
// personal-item path). A missing resource is an error: the check cannot be
// completed without knowing the resource's group.
type ResourceLookup interface {
	ResourceGroupID(ctx context.Context, resourceID string) (groupID string, hasGroup bool, err error)
}
