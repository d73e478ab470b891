package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/groupgate/groupgate/internal/identity"
)

// CreateResource inserts a resource owned by the caller. groupID nil makes
// the resource personal.
func (s *Store) CreateResource(ctx context.Context, id identity.Identity, groupID *string, title, body string) (Resource, error) {
	var r Resource
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO resources (id, group_id, owner_id, title, body)
			 VALUES ($1, $2, $3, $4, $5)
			 RETURNING id, group_id, owner_id, title, body, created_at, updated_at`,
			uuid.NewString(), groupID, id.ID, title, body)
		return scanResource(row, &r)
	})
	return r, mapError(err)
}

func (s *Store) UpdateResource(ctx context.Context, id identity.Identity, resourceID, title, body string) (Resource, error) {
	var r Resource
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE resources SET title = $2, body = $3, updated_at = now()
			 WHERE id = $1
			 RETURNING id, group_id, owner_id, title, body, created_at, updated_at`,
			resourceID, title, body)
		return scanResource(row, &r)
	})
	return r, mapError(err)
}

func (s *Store) DeleteResource(ctx context.Context, id identity.Identity, resourceID string) error {
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM resources WHERE id = $1`, resourceID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
	return mapError(err)
}

func (s *Store) ResourceByID(ctx context.Context, id identity.Identity, resourceID string) (Resource, error) {
	var r Resource
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT id, group_id, owner_id, title, body, created_at, updated_at
			 FROM resources WHERE id = $1`,
			resourceID)
		return scanResource(row, &r)
	})
	return r, mapError(err)
}

// ResourcesByGroup lists a group's resources; a nil groupID lists the
// caller's personal resources instead.
func (s *Store) ResourcesByGroup(ctx context.Context, id identity.Identity, groupID *string) ([]Resource, error) {
	var resources []Resource
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		var (
			rows pgx.Rows
			err  error
		)
		if groupID == nil {
			rows, err = tx.Query(ctx,
				`SELECT id, group_id, owner_id, title, body, created_at, updated_at
				 FROM resources WHERE group_id IS NULL AND owner_id = $1
				 ORDER BY created_at`,
				id.ID)
		} else {
			rows, err = tx.Query(ctx,
				`SELECT id, group_id, owner_id, title, body, created_at, updated_at
				 FROM resources WHERE group_id = $1
				 ORDER BY created_at`,
				*groupID)
		}
		if err != nil {
			return err
		}
		resources, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Resource])
		return err
	})
	return resources, mapError(err)
}

// system is the privileged identity resource-to-group resolution runs under.
// That lookup happens before authorization, and the row it needs may be
// hidden from the caller by row-level security; resolving it anyway is what
// lets a non-member get a membership denial instead of a phantom not-found.
func system() identity.Identity {
	return identity.Identity{ID: "system", Admin: true}
}

// IsMember reports whether userID belongs to groupID. It implements
// authz.MembershipOracle.
//
// The query runs in a session scoped to the user being checked, not a
// privileged one, so the answer comes through the same row-level security
// policies that gate ordinary membership reads. The policy layer and the
// database can then never disagree about what a membership row means.
func (s *Store) IsMember(ctx context.Context, userID, groupID string) (bool, error) {
	var member bool
	err := s.withIdentity(ctx, identity.Identity{ID: userID}, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`,
			groupID, userID)
		return row.Scan(&member)
	})
	if err != nil {
		return false, mapError(err)
	}
	return member, nil
}

// ResourceGroupID resolves the group a resource belongs to. It implements
// authz.ResourceLookup: a missing resource is an error, while an existing
// resource with no group reports hasGroup false.
func (s *Store) ResourceGroupID(ctx context.Context, resourceID string) (string, bool, error) {
	var groupID *string
	err := s.withIdentity(ctx, system(), func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT group_id FROM resources WHERE id = $1`, resourceID)
		return row.Scan(&groupID)
	})
	if err != nil {
		return "", false, mapError(err)
	}
	if groupID == nil {
		return "", false, nil
	}
	return *groupID, true, nil
}

func scanResource(row pgx.Row, r *Resource) error {
	return row.Scan(&r.ID, &r.GroupID, &r.OwnerID, &r.Title, &r.Body, &r.CreatedAt, &r.UpdatedAt)
}
