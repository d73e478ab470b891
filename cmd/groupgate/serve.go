package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groupgate/groupgate/internal/authz"
	"github.com/groupgate/groupgate/internal/engine"
	"github.com/groupgate/groupgate/internal/eventbus"
	"github.com/groupgate/groupgate/internal/identity"
	"github.com/groupgate/groupgate/internal/logging"
	"github.com/groupgate/groupgate/internal/resolver"
	"github.com/groupgate/groupgate/internal/schema"
	"github.com/groupgate/groupgate/internal/server"
	"github.com/groupgate/groupgate/internal/store"
	"github.com/groupgate/groupgate/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the GraphQL gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	if err := requireDatabaseURL(); err != nil {
		return err
	}

	logger := logging.NewLogger(logLevel())

	eventbus.Use(eventbus.New())
	logging.Attach(logger)
	shutdownTelemetry, err := telemetry.Setup(cfg.Telemetry.Endpoint, cfg.Telemetry.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(shutdownCtx)
	}()

	verifier, err := identity.NewVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close()

	sch, err := schema.Load()
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}

	// Memoize membership lookups per request scope.
	oracle := &authz.Memoized{Next: st}
	registry, err := authz.BuildRegistry(sch, oracle, st)
	if err != nil {
		return fmt.Errorf("policy registry: %w", err)
	}

	eng := engine.New(sch, resolver.New(st), registry)
	opts := []server.Option{
		server.WithTimeout(cfg.Server.Timeout),
		server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
	}
	if cfg.Server.Pretty {
		opts = append(opts, server.WithPretty())
	}
	handler := server.NewHandler(sch, eng, opts...)

	router := server.NewRouter(handler, server.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Verifier:       verifier,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logger.Info("gateway listening", "addr", cfg.Server.Addr, "policies", registry.Len())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
