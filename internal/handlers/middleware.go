package handlers

import (
	"net/http"
	"strings"

	"github.com/notekeeper/apiserver/internal/auth"
)

// TokenHeader carries the identity token on protected requests.
const TokenHeader = "auth-token"

// RequireAuth rejects requests without a valid token in TokenHeader and puts
// the token subject into the request context.
func RequireAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(TokenHeader))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Please authenticate using a valid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), userID)))
		})
	}
}

// LimitBody caps request bodies at maxBytes. Zero disables the cap.
func LimitBody(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
