package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/groupgate/groupgate/internal/eventbus"
	"github.com/groupgate/groupgate/internal/events"
	"github.com/groupgate/groupgate/internal/identity"
)

// withIdentity runs fn inside a transaction whose `request.jwt.claims`
// session setting carries the caller's claims, so FORCE ROW LEVEL SECURITY
// policies evaluate against the request principal rather than the pool's
// database user. set_config with is_local=true resets the setting at
// transaction end, which keeps pooled connections from leaking identities
// between requests.
func (s *Store) withIdentity(ctx context.Context, id identity.Identity, fn func(tx pgx.Tx) error) error {
	start := time.Now()
	err := s.inIdentityTx(ctx, id, fn)
	eventbus.Publish(ctx, events.StoreQuery{
		Role:     sessionRole(id),
		Err:      err,
		Duration: time.Since(start),
	})
	return err
}

func (s *Store) inIdentityTx(ctx context.Context, id identity.Identity, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	claims, err := json.Marshal(sessionClaims(id))
	if err != nil {
		return fmt.Errorf("encode claims: %w", err)
	}
	if _, err := tx.Exec(ctx, `SELECT set_config('request.jwt.claims', $1, true)`, string(claims)); err != nil {
		return fmt.Errorf("set claims: %w", err)
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func sessionClaims(id identity.Identity) map[string]any {
	claims := map[string]any{"role": sessionRole(id)}
	if id.ID != "" {
		claims["sub"] = id.ID
	}
	return claims
}

func sessionRole(id identity.Identity) string {
	switch {
	case id.Admin:
		return "service_role"
	case id.ID != "":
		return "authenticated"
	default:
		return "anon"
	}
}
