package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/groupgate/groupgate/internal/authz"
	"github.com/groupgate/groupgate/internal/engine"
	"github.com/groupgate/groupgate/internal/identity"
	"github.com/groupgate/groupgate/internal/schema"
)

type staticOracle struct {
	members map[string]bool
}

func (o staticOracle) IsMember(_ context.Context, userID, groupID string) (bool, error) {
	return o.members[userID+"/"+groupID], nil
}

type noResources struct{}

func (noResources) ResourceGroupID(context.Context, string) (string, bool, error) {
	return "", false, nil
}

type echoResolver struct{}

func (echoResolver) ResolveField(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	if objectType == "Query" && field == "me" {
		id := identity.FromContext(ctx)
		if id.ID == "" {
			return nil, nil
		}
		return map[string]any{"id": id.ID, "admin": id.Admin}, nil
	}
	if objectType == "Query" && field == "group" {
		return map[string]any{"id": args["id"], "name": "writers"}, nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[field], nil
	}
	return nil, nil
}

func newTestServer(t *testing.T, oracle authz.MembershipOracle, opts ...Option) (*httptest.Server, *identity.Verifier) {
	t.Helper()
	sch, err := schema.Load()
	require.NoError(t, err)
	reg, err := authz.BuildRegistry(sch, oracle, noResources{})
	require.NoError(t, err)

	verifier, err := identity.NewVerifier("test-secret")
	require.NoError(t, err)

	h := NewHandler(sch, engine.New(sch, echoResolver{}, reg), opts...)
	srv := httptest.NewServer(NewRouter(h, RouterConfig{Verifier: verifier}))
	t.Cleanup(srv.Close)
	return srv, verifier
}

func postGraphQL(t *testing.T, url, token, body string) map[string]any {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/graphql", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, staticOracle{})
	res, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Header.Get("X-Request-Id"))
}

func TestAnonymousQueryResolvesPublicFields(t *testing.T) {
	srv, _ := newTestServer(t, staticOracle{})
	out := postGraphQL(t, srv.URL, "", `{"query": "{ me { id } }"}`)
	require.Nil(t, out["errors"])
	require.Equal(t, map[string]any{"me": nil}, out["data"])
}

func TestProtectedFieldRequiresAuthentication(t *testing.T) {
	srv, _ := newTestServer(t, staticOracle{})
	out := postGraphQL(t, srv.URL, "", `{"query": "{ group(id: \"g-1\") { name } }"}`)

	errs := out["errors"].([]any)
	require.Len(t, errs, 1)
	ext := errs[0].(map[string]any)["extensions"].(map[string]any)
	require.Equal(t, "UNAUTHENTICATED", ext["code"])
}

func TestBearerTokenIdentifiesCaller(t *testing.T) {
	srv, verifier := newTestServer(t, staticOracle{members: map[string]bool{"alice/g-1": true}})
	token, err := verifier.Mint("alice", "", time.Minute)
	require.NoError(t, err)

	out := postGraphQL(t, srv.URL, token, `{"query": "{ group(id: \"g-1\") { name } }"}`)
	require.Nil(t, out["errors"])
	data := out["data"].(map[string]any)
	require.Equal(t, "writers", data["group"].(map[string]any)["name"])
}

func TestNonMemberIsDenied(t *testing.T) {
	srv, verifier := newTestServer(t, staticOracle{})
	token, err := verifier.Mint("mallory", "", time.Minute)
	require.NoError(t, err)

	out := postGraphQL(t, srv.URL, token, `{"query": "{ group(id: \"g-1\") { name } }"}`)
	errs := out["errors"].([]any)
	require.Len(t, errs, 1)
	ext := errs[0].(map[string]any)["extensions"].(map[string]any)
	require.Equal(t, "FORBIDDEN", ext["code"])
}

func TestInvalidTokenRejected(t *testing.T) {
	srv, _ := newTestServer(t, staticOracle{})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/graphql", strings.NewReader(`{"query":"{ me { id } }"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusUnauthorized, res.StatusCode)
}

func TestBatchRequests(t *testing.T) {
	srv, _ := newTestServer(t, staticOracle{})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/graphql",
		strings.NewReader(`[{"query":"{ me { id } }"},{"query":"{ me { id } }"}]`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out []any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	require.Len(t, out, 2)
}

func TestBodyTooLarge(t *testing.T) {
	srv, _ := newTestServer(t, staticOracle{}, WithMaxBodyBytes(32))
	res, err := http.Post(srv.URL+"/graphql", "application/json",
		strings.NewReader(`{"query":"{ me { id admin } me2: me { id admin } }"}`))
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusRequestEntityTooLarge, res.StatusCode)
}

func TestGetQuery(t *testing.T) {
	srv, _ := newTestServer(t, staticOracle{})
	res, err := http.Get(srv.URL + "/graphql?query=" + "%7B%20me%20%7B%20id%20%7D%20%7D")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestValidationErrorSurfaces(t *testing.T) {
	srv, _ := newTestServer(t, staticOracle{})
	out := postGraphQL(t, srv.URL, "", `{"query": "{ nope }"}`)
	require.NotNil(t, out["errors"])
}
