package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/groupgate/groupgate/internal/identity"
)

// CreateGroup inserts a group owned by the caller and enrolls the caller as
// its first member in the same transaction.
func (s *Store) CreateGroup(ctx context.Context, id identity.Identity, name string) (Group, error) {
	var g Group
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO groups (id, name, owner_id)
			 VALUES ($1, $2, $3)
			 RETURNING id, name, owner_id, created_at`,
			uuid.NewString(), name, id.ID)
		if err := row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)`,
			g.ID, id.ID)
		return err
	})
	return g, mapError(err)
}

func (s *Store) RenameGroup(ctx context.Context, id identity.Identity, groupID, name string) (Group, error) {
	var g Group
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE groups SET name = $2 WHERE id = $1
			 RETURNING id, name, owner_id, created_at`,
			groupID, name)
		return row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt)
	})
	return g, mapError(err)
}

func (s *Store) DeleteGroup(ctx context.Context, id identity.Identity, groupID string) error {
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM groups WHERE id = $1`, groupID)
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

func (s *Store) GroupByID(ctx context.Context, id identity.Identity, groupID string) (Group, error) {
	var g Group
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`SELECT id, name, owner_id, created_at FROM groups WHERE id = $1`,
			groupID)
		return row.Scan(&g.ID, &g.Name, &g.OwnerID, &g.CreatedAt)
	})
	return g, mapError(err)
}

// GroupsForUser lists the groups the caller is a member of, oldest first.
func (s *Store) GroupsForUser(ctx context.Context, id identity.Identity) ([]Group, error) {
	var groups []Group
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT g.id, g.name, g.owner_id, g.created_at
			 FROM groups g
			 JOIN group_members m ON m.group_id = g.id
			 WHERE m.user_id = $1
			 ORDER BY g.created_at`,
			id.ID)
		if err != nil {
			return err
		}
		groups, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Group])
		return err
	})
	return groups, mapError(err)
}

func (s *Store) GroupMembers(ctx context.Context, id identity.Identity, groupID string) ([]Membership, error) {
	var members []Membership
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT group_id, user_id, added_at FROM group_members
			 WHERE group_id = $1 ORDER BY added_at`,
			groupID)
		if err != nil {
			return err
		}
		members, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Membership])
		return err
	})
	return members, mapError(err)
}

func (s *Store) AddGroupMember(ctx context.Context, id identity.Identity, groupID, userID string) (Membership, error) {
	var m Membership
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO group_members (group_id, user_id) VALUES ($1, $2)
			 RETURNING group_id, user_id, added_at`,
			groupID, userID)
		return row.Scan(&m.GroupID, &m.UserID, &m.AddedAt)
	})
	return m, mapError(err)
}

func (s *Store) RemoveGroupMember(ctx context.Context, id identity.Identity, groupID, userID string) error {
	err := s.withIdentity(ctx, id, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`,
			groupID, userID)
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
