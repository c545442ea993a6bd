package middleware

import (
	"net/http"
	"strings"

	"github.com/keyhaven/backend/internal/auth"
	"github.com/keyhaven/backend/internal/httpx"
	"github.com/keyhaven/backend/internal/models"
)

// TokenVerifier decodes a session token into the caller's identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// RequireAuth validates the session token and injects the caller identity
// into the request context. The Authorization header takes precedence over
// the session cookie when both are present.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
					token = cookie.Value
				}
			}
			if token == "" {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Not authorized, token missing")
				return
			}

			id, err := tokens.Verify(token)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not in the allowed
// set. It must run after RequireAuth.
func RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFrom(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUnauthorized, "Not authorized")
				return
			}
			if !allowed[id.Role] {
				httpx.WriteError(w, http.StatusForbidden, httpx.CodeForbidden, "Access forbidden: insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
