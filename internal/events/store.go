package events

import "time"

// StoreQuery is emitted after each identity-scoped store transaction.
type StoreQuery struct {
	// Role is the database role the transaction asserted: anon,
	// authenticated, or service_role.
	Role string
	Err  error

	Duration time.Duration
}
