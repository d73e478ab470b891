package resolver

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/groupgate/groupgate/internal/identity"
	"github.com/groupgate/groupgate/internal/store"
)

type fakeBackend struct {
	Backend

	groups    map[string]store.Group
	resources map[string]store.Resource

	lastGroupID   string
	lastCreateArg *string
}

func (f *fakeBackend) GroupByID(ctx context.Context, id identity.Identity, groupID string) (store.Group, error) {
	f.lastGroupID = groupID
	g, ok := f.groups[groupID]
	if !ok {
		return store.Group{}, store.ErrNotFound
	}
	return g, nil
}

func (f *fakeBackend) CreateResource(ctx context.Context, id identity.Identity, groupID *string, title, body string) (store.Resource, error) {
	f.lastCreateArg = groupID
	return store.Resource{ID: "r-1", GroupID: groupID, OwnerID: id.ID, Title: title, Body: body}, nil
}

func gid(typeName, raw string) string {
	return base64.StdEncoding.EncodeToString([]byte(typeName + ":" + raw))
}

func asUser(id string) context.Context {
	return identity.NewContext(context.Background(), identity.Identity{ID: id})
}

func TestMeUnauthenticated(t *testing.T) {
	r := New(&fakeBackend{})
	got, err := r.ResolveField(context.Background(), "Query", "me", nil, nil)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestGroupDecodesGlobalID(t *testing.T) {
	backend := &fakeBackend{groups: map[string]store.Group{
		"g-1": {ID: "g-1", Name: "writers", OwnerID: "alice", CreatedAt: time.Now()},
	}}
	r := New(backend)

	got, err := r.ResolveField(asUser("alice"), "Query", "group", nil,
		map[string]any{"id": gid("Group", "g-1")})
	require.NoError(t, err)
	require.Equal(t, "g-1", backend.lastGroupID)

	data := got.(map[string]any)
	require.Equal(t, gid("Group", "g-1"), data["id"])
	require.Equal(t, gid("User", "alice"), data["ownerId"])
	require.Equal(t, "writers", data["name"])
}

func TestGroupAcceptsRawID(t *testing.T) {
	backend := &fakeBackend{groups: map[string]store.Group{
		"g-1": {ID: "g-1", Name: "writers"},
	}}
	r := New(backend)

	_, err := r.ResolveField(asUser("alice"), "Query", "group", nil,
		map[string]any{"id": "g-1"})
	require.NoError(t, err)
	require.Equal(t, "g-1", backend.lastGroupID)
}

func TestGroupNotFound(t *testing.T) {
	r := New(&fakeBackend{groups: map[string]store.Group{}})
	_, err := r.ResolveField(asUser("alice"), "Query", "group", nil,
		map[string]any{"id": "g-404"})
	require.EqualError(t, err, "not found")
}

func TestCreatePersonalResource(t *testing.T) {
	backend := &fakeBackend{}
	r := New(backend)

	got, err := r.ResolveField(asUser("alice"), "Mutation", "createResource", nil,
		map[string]any{"input": map[string]any{"title": "journal"}})
	require.NoError(t, err)
	require.Nil(t, backend.lastCreateArg)

	data := got.(map[string]any)
	require.Nil(t, data["groupId"])
	require.Equal(t, gid("User", "alice"), data["ownerId"])
}

func TestCreateGroupResourceDecodesGroupID(t *testing.T) {
	backend := &fakeBackend{}
	r := New(backend)

	_, err := r.ResolveField(asUser("alice"), "Mutation", "createResource", nil,
		map[string]any{"input": map[string]any{
			"groupId": gid("Group", "g-1"),
			"title":   "handbook",
		}})
	require.NoError(t, err)
	require.NotNil(t, backend.lastCreateArg)
	require.Equal(t, "g-1", *backend.lastCreateArg)
}
