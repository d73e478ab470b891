// Package events defines the event payloads published on the in-process bus.
// Subscribers (logging, tracing) attach at startup.
package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when a request enters the router.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
	UserID        string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	UserID        string
	Errors        []error
	Duration      time.Duration
}
