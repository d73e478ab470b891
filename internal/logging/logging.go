// Package logging emits structured request logs from eventbus events.
package logging

import (
	"context"
	"log/slog"
	"os"

	"github.com/groupgate/groupgate/internal/eventbus"
	"github.com/groupgate/groupgate/internal/events"
	"github.com/groupgate/groupgate/internal/reqid"
)

// NewLogger builds the process logger. JSON output goes to stderr so stdout
// stays free for command output.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Attach subscribes request, operation and policy log lines to the bus.
func Attach(logger *slog.Logger) {
	eventbus.Subscribe(func(ctx context.Context, e events.HTTPFinish) {
		rid, _ := reqid.FromContext(ctx)
		logger.InfoContext(ctx, "http request",
			"request_id", rid,
			"method", e.Request.Method,
			"path", e.Request.URL.Path,
			"status", e.Status,
			"duration", e.Duration,
		)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.GraphQLFinish) {
		rid, _ := reqid.FromContext(ctx)
		logger.InfoContext(ctx, "graphql operation",
			"request_id", rid,
			"operation", e.OperationName,
			"type", e.OperationType,
			"user_id", e.UserID,
			"errors", len(e.Errors),
			"duration", e.Duration,
		)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.StoreQuery) {
		// Not-found lookups surface here as errors too, so this stays at
		// debug level rather than warning on every miss.
		attrs := []any{"role", e.Role, "duration", e.Duration}
		if e.Err != nil {
			attrs = append(attrs, "error", e.Err)
		}
		logger.DebugContext(ctx, "store query", attrs...)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.PolicyDecision) {
		rid, _ := reqid.FromContext(ctx)
		if e.Allowed {
			logger.DebugContext(ctx, "policy allow",
				"request_id", rid,
				"action", e.Action,
				"user_id", e.UserID,
				"duration", e.Duration,
			)
			return
		}
		logger.InfoContext(ctx, "policy deny",
			"request_id", rid,
			"action", e.Action,
			"user_id", e.UserID,
			"error", e.Err,
			"duration", e.Duration,
		)
	})
}
