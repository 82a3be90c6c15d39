package middlewares

import (
	"errors"
	"net/http"
	"time"

	"github.com/campushub/campusevents/internal/config"
	"github.com/campushub/campusevents/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole re-reads the account instead of trusting the role claim in the
// token. A session outlives role changes and account deletion; the store is
// the source of truth for who may pass.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := UserIDFromContext(c)

		if !ok || id == "" {
			abortError(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}

		cctx, cancel := config.WithTimeout(2 * time.Second)

		defer cancel()

		u, err := m.users.GetByID(cctx, id)

		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abortError(c, http.StatusUnauthorized, "unauthorized", "Account no longer exists")
				return
			}

			abortError(c, http.StatusInternalServerError, "internal_error", "Could not load account")
			return
		}

		if u.Role != required {
			abortError(c, http.StatusForbidden, "forbidden", "Insufficient role")
			return
		}

		// downstream handlers see the stored role, not the claim
		c.Set(ctxRoleKey, u.Role)

		c.Next()
	}
}
