package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 10*time.Second, cfg.Server.Timeout)
	require.Equal(t, "groupgate", cfg.Telemetry.Service)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("GROUPGATE_SERVER_ADDR", ":9999")
	t.Setenv("GROUPGATE_DATABASE_URL", "postgres://localhost/groupgate")
	t.Setenv("GROUPGATE_AUTH_JWT_SECRET", "hunter2")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Addr)
	require.Equal(t, "postgres://localhost/groupgate", cfg.Database.URL)
	require.Equal(t, "hunter2", cfg.Auth.JWTSecret)
}
