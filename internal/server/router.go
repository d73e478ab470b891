package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/groupgate/groupgate/internal/eventbus"
	"github.com/groupgate/groupgate/internal/events"
	"github.com/groupgate/groupgate/internal/reqid"
	"github.com/groupgate/groupgate/internal/schema"
)

// RouterConfig carries the HTTP-level settings for the gateway router.
type RouterConfig struct {
	AllowedOrigins []string
	Verifier       TokenVerifier
}

// NewRouter mounts the GraphQL endpoint plus health and schema routes behind
// the shared middleware stack.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestEvents)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		}))
	}
	r.Use(Authenticate(cfg.Verifier))

	r.Handle("/graphql", h)
	r.Get("/schema", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(schema.SDL()))
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// requestEvents tags the context with a request ID and publishes HTTP
// start/finish events around the handler.
func requestEvents(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, rid := reqid.NewContext(r.Context())
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-Id", rid)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		eventbus.Publish(ctx, events.HTTPStart{Request: r})
		defer func() {
			eventbus.Publish(ctx, events.HTTPFinish{
				Request:  r,
				Status:   ww.Status(),
				Duration: time.Since(start),
			})
		}()
		next.ServeHTTP(ww, r)
	})
}
