package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupgate/groupgate/internal/identity"
)

// ObjectData exposes already-resolved fields of the object a type-level check
// concerns. It is read-only to the executor.
type ObjectData interface {
	Field(name string) (any, bool)
}

// MapData adapts a plain row map to ObjectData.
type MapData map[string]any

func (m MapData) Field(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Request is the execution context handed to one policy check: the request
// identity, the raw argument map of the field being authorized, and, for
// type-level checks, the partially-resolved object. Cancellation rides on
// the context.Context passed to Check.
type Request struct {
	Identity identity.Identity
	Args     map[string]any
	Object   ObjectData // nil for field-level checks
}

// Executor performs one authorization decision for one field/row occurrence.
// An Executor is stateless apart from its injected dependencies and is safe
// for concurrent use; the host engine may invoke it N times in parallel for a
// list of N objects.
type Executor struct {
	typeName     string
	fieldName    string // empty for type-level executors
	groupIDField string
	oracle       MembershipOracle
	resources    ResourceLookup
}

// Check returns nil to allow, *AccessDenied to deny, and any other error when
// the check could not be completed. It never mutates anything; its only side
// effect is the read-only membership lookup.
func (e *Executor) Check(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		// Propagate cancellation as-is, never as a denial.
		return err
	}
	if req.Identity.Anonymous() {
		return fmt.Errorf("%w: %s", ErrAuthenticationRequired, e.Action())
	}
	if req.Object != nil {
		return e.checkObject(ctx, req)
	}
	return e.checkArguments(ctx, req)
}

// checkArguments is the field-level branch: no object has been produced yet,
// so the group must be found in the call's arguments.
//
// The group id is looked for in order: the configured argument itself, the
// same field inside a nested input object, and finally an id-shaped field on
// the input identifying an existing resource whose stored group governs the
// call. Finding nothing checkable is an allow: calls with no group reference
// are legitimately global in scope.
func (e *Executor) checkArguments(ctx context.Context, req Request) error {
	if ref, present, err := ParseRef(req.Args[e.groupIDField]); err != nil {
		return err
	} else if present {
		return e.membership(ctx, req.Identity.ID, ref)
	}

	input, _ := req.Args["input"].(map[string]any)
	if input != nil {
		if ref, present, err := ParseRef(input[e.groupIDField]); err != nil {
			return err
		} else if present {
			return e.membership(ctx, req.Identity.ID, ref)
		}
		if ref, present, err := ParseRef(input["id"]); err != nil {
			return err
		} else if present {
			return e.checkByResource(ctx, req.Identity.ID, ref)
		}
	}

	return nil
}

// checkByResource resolves "mutation on existing resource #X": authorization
// depends on X's current stored group, not on any argument named after the
// group field.
func (e *Executor) checkByResource(ctx context.Context, userID string, ref Ref) error {
	rawID, err := ref.RawID()
	if err != nil {
		return err
	}
	groupID, hasGroup, err := e.resources.ResourceGroupID(ctx, rawID)
	if err != nil {
		if isCancellation(err) {
			return err
		}
		return fmt.Errorf("%w: resource %s: %v", ErrMembershipCheckFailed, rawID, err)
	}
	if !hasGroup {
		// Ungrouped resource: the personal-item path, nothing to check here.
		return nil
	}
	ref, present, err := ParseRef(groupID)
	if err != nil || !present {
		return fmt.Errorf("%w: stored group id for resource %s", ErrMalformedIdentifier, rawID)
	}
	return e.membership(ctx, userID, ref)
}

// checkObject is the type-level branch: one concrete, partially-resolved
// object. A missing or null group field means a legacy ungrouped item and is
// an allow regardless of caller identity.
func (e *Executor) checkObject(ctx context.Context, req Request) error {
	v, ok := req.Object.Field(e.groupIDField)
	if !ok || v == nil {
		return nil
	}
	ref, present, err := ParseRef(v)
	if err != nil {
		return err
	}
	if !present {
		return nil
	}
	return e.membership(ctx, req.Identity.ID, ref)
}

// membership is the shared tail of both branches.
func (e *Executor) membership(ctx context.Context, userID string, ref Ref) error {
	groupID, err := ref.RawID()
	if err != nil {
		return err
	}
	ok, err := e.oracle.IsMember(ctx, userID, groupID)
	if err != nil {
		if isCancellation(err) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMembershipCheckFailed, err)
	}
	if !ok {
		return &AccessDenied{Action: e.Action(), GroupID: groupID}
	}
	return nil
}

// Action names the protected position, "Type.field" for field-level checks
// and "Type" for object-level checks.
func (e *Executor) Action() string {
	if e.fieldName == "" {
		return e.typeName
	}
	return e.typeName + "." + e.fieldName
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
