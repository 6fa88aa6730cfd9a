package gateway

import (
	"net/http"

	"github.com/sqlmcp/auth"
)

// Authenticator rejects requests that do not carry a valid bearer token.
func Authenticator(next http.Handler) http.Handler {
	tok := auth.NewT()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := tok.Extract(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or malformed bearer token")
			return
		}
		if _, err := tok.Verify(raw); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}
