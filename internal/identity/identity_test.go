package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	id := Identity{ID: "alice"}
	ctx := NewContext(context.Background(), id)
	require.Equal(t, id, FromContext(ctx))

	require.True(t, FromContext(context.Background()).Anonymous())
}

func TestMintVerifyRoundTrip(t *testing.T) {
	v, err := NewVerifier("secret")
	require.NoError(t, err)

	tok, err := v.Mint("alice", "", time.Minute)
	require.NoError(t, err)

	id, err := v.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "alice", id.ID)
	require.False(t, id.Admin)
}

func TestAdminRoles(t *testing.T) {
	v, err := NewVerifier("secret")
	require.NoError(t, err)

	for _, role := range []string{"admin", "service_role"} {
		tok, err := v.Mint("ops", role, time.Minute)
		require.NoError(t, err)
		id, err := v.Verify(tok)
		require.NoError(t, err)
		require.True(t, id.Admin, "role %s should grant admin", role)
	}

	tok, err := v.Mint("alice", "authenticated", time.Minute)
	require.NoError(t, err)
	id, err := v.Verify(tok)
	require.NoError(t, err)
	require.False(t, id.Admin)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer, err := NewVerifier("secret-a")
	require.NoError(t, err)
	verifier, err := NewVerifier("secret-b")
	require.NoError(t, err)

	tok, err := signer.Mint("alice", "", time.Minute)
	require.NoError(t, err)
	_, err = verifier.Verify(tok)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	v, err := NewVerifier("secret")
	require.NoError(t, err)

	tok, err := v.Mint("alice", "", -time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(tok)
	require.Error(t, err)
}

func TestVerifyRequiresSubject(t *testing.T) {
	v, err := NewVerifier("secret")
	require.NoError(t, err)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "authenticated"})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Verify(signed)
	require.ErrorContains(t, err, "no subject")
}

func TestVerifierRequiresSecret(t *testing.T) {
	_, err := NewVerifier("")
	require.Error(t, err)
}
