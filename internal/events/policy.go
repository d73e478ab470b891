package events

import "time"

// PolicyDecision is emitted after each membership policy check.
type PolicyDecision struct {
	// Action is "Type.field" for field-level checks and "Type" for
	// object-level checks.
	Action  string
	UserID  string
	Allowed bool
	Err     error

	Duration time.Duration
}
