package server

import (
	"net/http"
	"strings"

	"github.com/groupgate/groupgate/internal/identity"
)

// TokenVerifier turns a bearer token into an identity.
type TokenVerifier interface {
	Verify(token string) (identity.Identity, error)
}

// Authenticate resolves the Authorization header into the request identity.
// Requests without a token proceed as anonymous; protected fields deny them
// downstream. Requests with an invalid token are rejected outright.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(identity.NewContext(r.Context(), identity.Identity{})))
				return
			}
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || verifier == nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse("invalid authorization header"), false)
				return
			}
			id, err := verifier.Verify(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse("invalid token"), false)
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.NewContext(r.Context(), id)))
		})
	}
}
