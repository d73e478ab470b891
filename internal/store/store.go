// Package store persists groups, memberships and resources in PostgreSQL.
//
// Every statement runs inside an identity-scoped transaction that publishes
// the caller's JWT claims as the Supabase-style `request.jwt.claims` session
// setting, so row-level security policies see the same principal the
// application layer checked.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a row does not exist or is hidden from
	// the caller by row-level security.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned on unique-constraint violations, e.g. adding
	// a member twice.
	ErrDuplicate = errors.New("store: already exists")
)

type Group struct {
	ID        string
	Name      string
	OwnerID   string
	CreatedAt time.Time
}

type Membership struct {
	GroupID string
	UserID  string
	AddedAt time.Time
}

// Resource is a document that may belong to a group. GroupID is nil for
// personal resources, which bypass membership policy.
type Resource struct {
	ID        string
	GroupID   *string
	OwnerID   string
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pool to the given DSN and pings it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// mapError normalizes pgx errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}
