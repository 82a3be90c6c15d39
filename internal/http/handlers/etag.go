package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag tags the payload with a content hash so clients
// polling the event list can revalidate instead of re-downloading pages.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	etag, err := payloadETag(payload)
	if err != nil {
		ctx.JSON(status, payload)
		return
	}

	ctx.Header("ETag", etag)

	if etagMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.JSON(status, payload)
}

func payloadETag(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(b)

	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

func etagMatches(ifNoneMatch, current string) bool {
	if strings.TrimSpace(ifNoneMatch) == "" || strings.TrimSpace(current) == "" {
		return false
	}

	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}

	want := normalizeETag(current)

	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if normalizeETag(candidate) == want {
			return true
		}
	}

	return false
}

func normalizeETag(raw string) string {
	v := strings.TrimSpace(raw)

	// browsers may echo the tag back as a weak validator, W/"abc"
	if strings.HasPrefix(v, "W/") {
		v = strings.TrimSpace(strings.TrimPrefix(v, "W/"))
	}

	return v
}
