package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests without a JSON content type. Multipart
// uploads (event images) are exempt.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := strings.ToLower(c.GetHeader("Content-Type"))

			if strings.HasPrefix(ct, "multipart/form-data") {
				break
			}

			// allow "application/json; charset=utf-8"
			if ct == "" || !strings.HasPrefix(ct, "application/json") {
				abortError(c, http.StatusUnsupportedMediaType,
					"unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}
