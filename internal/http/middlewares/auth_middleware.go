package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/campushub/campusevents/internal/auth"
	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// SessionCookieName is the cookie the token issuer sets on register/signin.
const SessionCookieName = "token"

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// ActorStore loads the account behind a session so role checks run against
// current state rather than token claims.
type ActorStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users ActorStore
}

func NewAuthMiddleware(jwt TokenVerifier, users ActorStore) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth accepts the session token from the cookie or, failing that,
// an Authorization bearer header. Browser clients use the cookie; the header
// keeps curl and API clients working.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)

		if raw == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Invalid or expired session")
			return
		}

		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxRoleKey, claims.Role)

		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	}

	return ""
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func RoleFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}
