// Package resolver maps GraphQL fields onto store operations. Identifiers
// cross the API boundary as base64 global IDs and are decoded back to raw
// keys before hitting the database.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/groupgate/groupgate/internal/authz"
	"github.com/groupgate/groupgate/internal/identity"
	"github.com/groupgate/groupgate/internal/store"
)

// Backend is the slice of the store the resolvers use.
type Backend interface {
	CreateGroup(ctx context.Context, id identity.Identity, name string) (store.Group, error)
	RenameGroup(ctx context.Context, id identity.Identity, groupID, name string) (store.Group, error)
	DeleteGroup(ctx context.Context, id identity.Identity, groupID string) error
	GroupByID(ctx context.Context, id identity.Identity, groupID string) (store.Group, error)
	GroupsForUser(ctx context.Context, id identity.Identity) ([]store.Group, error)
	GroupMembers(ctx context.Context, id identity.Identity, groupID string) ([]store.Membership, error)
	AddGroupMember(ctx context.Context, id identity.Identity, groupID, userID string) (store.Membership, error)
	RemoveGroupMember(ctx context.Context, id identity.Identity, groupID, userID string) error

	CreateResource(ctx context.Context, id identity.Identity, groupID *string, title, body string) (store.Resource, error)
	UpdateResource(ctx context.Context, id identity.Identity, resourceID, title, body string) (store.Resource, error)
	DeleteResource(ctx context.Context, id identity.Identity, resourceID string) error
	ResourceByID(ctx context.Context, id identity.Identity, resourceID string) (store.Resource, error)
	ResourcesByGroup(ctx context.Context, id identity.Identity, groupID *string) ([]store.Resource, error)
}

type Root struct {
	backend Backend
}

func New(backend Backend) *Root {
	return &Root{backend: backend}
}

// ResolveField implements engine.Resolver.
func (r *Root) ResolveField(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch objectType {
	case "Query":
		return r.resolveQuery(ctx, field, args)
	case "Mutation":
		return r.resolveMutation(ctx, field, args)
	case "Group":
		return r.resolveGroup(ctx, field, source)
	default:
		if m, ok := source.(map[string]any); ok {
			return m[field], nil
		}
		return nil, nil
	}
}

func (r *Root) resolveQuery(ctx context.Context, field string, args map[string]any) (any, error) {
	id := identity.FromContext(ctx)
	switch field {
	case "me":
		if id.ID == "" {
			return nil, nil
		}
		return map[string]any{
			"id":    encodeID("User", id.ID),
			"admin": id.Admin,
		}, nil
	case "group":
		groupID, err := rawID(args["id"])
		if err != nil {
			return nil, err
		}
		g, err := r.backend.GroupByID(ctx, id, groupID)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return groupData(g), nil
	case "myGroups":
		groups, err := r.backend.GroupsForUser(ctx, id)
		if err != nil {
			return nil, mapStoreError(err)
		}
		out := make([]any, len(groups))
		for i, g := range groups {
			out[i] = groupData(g)
		}
		return out, nil
	case "resource":
		resourceID, err := rawID(args["id"])
		if err != nil {
			return nil, err
		}
		res, err := r.backend.ResourceByID(ctx, id, resourceID)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return resourceData(res), nil
	case "resources":
		groupID, err := optionalRawID(args["groupId"])
		if err != nil {
			return nil, err
		}
		resources, err := r.backend.ResourcesByGroup(ctx, id, groupID)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return resourceList(resources), nil
	}
	return nil, fmt.Errorf("unknown query field %s", field)
}

func (r *Root) resolveMutation(ctx context.Context, field string, args map[string]any) (any, error) {
	id := identity.FromContext(ctx)
	switch field {
	case "createGroup":
		name, _ := args["name"].(string)
		g, err := r.backend.CreateGroup(ctx, id, name)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return groupData(g), nil
	case "renameGroup":
		input := inputMap(args)
		groupID, err := rawID(input["id"])
		if err != nil {
			return nil, err
		}
		name, _ := input["name"].(string)
		g, err := r.backend.RenameGroup(ctx, id, groupID, name)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return groupData(g), nil
	case "deleteGroup":
		groupID, err := rawID(args["id"])
		if err != nil {
			return nil, err
		}
		if err := r.backend.DeleteGroup(ctx, id, groupID); err != nil {
			return nil, mapStoreError(err)
		}
		return true, nil
	case "addGroupMember":
		input := inputMap(args)
		groupID, err := rawID(input["groupId"])
		if err != nil {
			return nil, err
		}
		userID, err := rawID(input["userId"])
		if err != nil {
			return nil, err
		}
		m, err := r.backend.AddGroupMember(ctx, id, groupID, userID)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return membershipData(m), nil
	case "removeGroupMember":
		input := inputMap(args)
		groupID, err := rawID(input["groupId"])
		if err != nil {
			return nil, err
		}
		userID, err := rawID(input["userId"])
		if err != nil {
			return nil, err
		}
		if err := r.backend.RemoveGroupMember(ctx, id, groupID, userID); err != nil {
			return nil, mapStoreError(err)
		}
		return true, nil
	case "createResource":
		input := inputMap(args)
		groupID, err := optionalRawID(input["groupId"])
		if err != nil {
			return nil, err
		}
		title, _ := input["title"].(string)
		body, _ := input["body"].(string)
		res, err := r.backend.CreateResource(ctx, id, groupID, title, body)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return resourceData(res), nil
	case "updateResource":
		input := inputMap(args)
		resourceID, err := rawID(input["id"])
		if err != nil {
			return nil, err
		}
		title, _ := input["title"].(string)
		body, _ := input["body"].(string)
		res, err := r.backend.UpdateResource(ctx, id, resourceID, title, body)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return resourceData(res), nil
	case "deleteResource":
		input := inputMap(args)
		resourceID, err := rawID(input["id"])
		if err != nil {
			return nil, err
		}
		if err := r.backend.DeleteResource(ctx, id, resourceID); err != nil {
			return nil, mapStoreError(err)
		}
		return true, nil
	}
	return nil, fmt.Errorf("unknown mutation field %s", field)
}

func (r *Root) resolveGroup(ctx context.Context, field string, source any) (any, error) {
	src, _ := source.(map[string]any)
	switch field {
	case "members":
		id := identity.FromContext(ctx)
		groupID, err := rawID(src["id"])
		if err != nil {
			return nil, err
		}
		members, err := r.backend.GroupMembers(ctx, id, groupID)
		if err != nil {
			return nil, mapStoreError(err)
		}
		out := make([]any, len(members))
		for i, m := range members {
			out[i] = membershipData(m)
		}
		return out, nil
	case "resources":
		id := identity.FromContext(ctx)
		groupID, err := rawID(src["id"])
		if err != nil {
			return nil, err
		}
		resources, err := r.backend.ResourcesByGroup(ctx, id, &groupID)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return resourceList(resources), nil
	default:
		return src[field], nil
	}
}

func groupData(g store.Group) map[string]any {
	return map[string]any{
		"id":        encodeID("Group", g.ID),
		"name":      g.Name,
		"ownerId":   encodeID("User", g.OwnerID),
		"createdAt": g.CreatedAt,
	}
}

func membershipData(m store.Membership) map[string]any {
	return map[string]any{
		"groupId": encodeID("Group", m.GroupID),
		"userId":  encodeID("User", m.UserID),
		"addedAt": m.AddedAt,
	}
}

func resourceData(r store.Resource) map[string]any {
	data := map[string]any{
		"id":        encodeID("Resource", r.ID),
		"groupId":   nil,
		"ownerId":   encodeID("User", r.OwnerID),
		"title":     r.Title,
		"body":      r.Body,
		"createdAt": r.CreatedAt,
		"updatedAt": r.UpdatedAt,
	}
	if r.GroupID != nil {
		data["groupId"] = encodeID("Group", *r.GroupID)
	}
	return data
}

func resourceList(resources []store.Resource) []any {
	out := make([]any, len(resources))
	for i, r := range resources {
		out[i] = resourceData(r)
	}
	return out
}

func encodeID(typeName, raw string) string {
	return authz.GlobalID{Type: typeName, ID: raw}.String()
}

// rawID decodes a client-supplied identifier, accepting both global IDs and
// raw keys.
func rawID(v any) (string, error) {
	ref, ok, err := authz.ParseRef(v)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", errors.New("missing identifier")
	}
	return ref.RawID()
}

func optionalRawID(v any) (*string, error) {
	ref, ok, err := authz.ParseRef(v)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	raw, err := ref.RawID()
	if err != nil {
		return nil, err
	}
	return &raw, nil
}

func inputMap(args map[string]any) map[string]any {
	m, _ := args["input"].(map[string]any)
	if m == nil {
		return map[string]any{}
	}
	return m
}

func mapStoreError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errors.New("not found")
	}
	if errors.Is(err, store.ErrDuplicate) {
		return errors.New("already exists")
	}
	return err
}
