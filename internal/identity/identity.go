// Package identity carries the authenticated caller through a request.
package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the authenticated caller: an opaque user id plus an admin flag.
// It is established once per inbound request from a bearer credential and is
// immutable for the request's lifetime. The zero value means anonymous.
type Identity struct {
	ID    string
	Admin bool
}

// Anonymous reports whether no authenticated caller is present.
func (id Identity) Anonymous() bool { return id.ID == "" }

type ctxKey struct{}

// NewContext returns a copy of parent carrying id.
func NewContext(parent context.Context, id Identity) context.Context {
	return context.WithValue(parent, ctxKey{}, id)
}

// FromContext extracts the identity from ctx. A context without an identity
// yields the zero value, i.e. anonymous.
func FromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(ctxKey{}).(Identity)
	return id
}

// adminRoles are JWT role claims that grant the admin flag. "service_role"
// matches the Supabase convention for backend service credentials.
var adminRoles = map[string]bool{
	"admin":        true,
	"service_role": true,
}

// Verifier validates HS256 bearer tokens against a shared secret and maps
// their claims onto an Identity.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a verifier for the given shared secret.
func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("identity: JWT secret is required")
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses and validates tokenString and returns the caller identity.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	tok, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if token.Method == nil || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, fmt.Errorf("identity: token verification failed: %w", err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("identity: unsupported claim type %T", tok.Claims)
	}

	var id Identity
	if sub, ok := claims["sub"].(string); ok {
		id.ID = sub
	}
	if id.ID == "" {
		return Identity{}, fmt.Errorf("identity: token has no subject")
	}
	if role, ok := claims["role"].(string); ok {
		id.Admin = adminRoles[role]
	}
	return id, nil
}

// Mint issues a development token for the given user. The ttl bounds the
// token's validity; role becomes the JWT role claim ("authenticated" when
// empty).
func (v *Verifier) Mint(userID, role string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("identity: user id is required")
	}
	if role == "" {
		role = "authenticated"
	}
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	})
	return tok.SignedString(v.secret)
}
