package authz

import (
	"context"
	"sync"
)

type memoKey struct {
	userID  string
	groupID string
}

// requestCache holds membership answers for the lifetime of one request.
type requestCache struct {
	mu   sync.Mutex
	seen map[memoKey]bool
}

type memoCtxKey struct{}

// WithRequestScope attaches a fresh membership memo to ctx. The request
// boundary calls this once per inbound request; a Memoized oracle then reuses
// answers within that request only. Membership can change between requests,
// so the memo must never be shared across them.
func WithRequestScope(ctx context.Context) context.Context {
	return context.WithValue(ctx, memoCtxKey{}, &requestCache{seen: make(map[memoKey]bool)})
}

// Memoized wraps a MembershipOracle with same-request memoization keyed by
// (user, group). Type-level checks over a list of N rows in one group would
// otherwise hit the store N times for the same answer.
//
// Without a request scope on the context, lookups pass straight through.
// Only definitive answers are cached; errors are returned but never
// remembered.
type Memoized struct {
	Next MembershipOracle
}

func (m Memoized) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	cache, _ := ctx.Value(memoCtxKey{}).(*requestCache)
	if cache == nil {
		return m.Next.IsMember(ctx, userID, groupID)
	}

	k := memoKey{userID: userID, groupID: groupID}
	cache.mu.Lock()
	v, ok := cache.seen[k]
	cache.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := m.Next.IsMember(ctx, userID, groupID)
	if err != nil {
		return false, err
	}

	cache.mu.Lock()
	cache.seen[k] = v
	cache.mu.Unlock()
	return v, nil
}
