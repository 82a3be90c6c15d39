package middlewares

import "github.com/gin-gonic/gin"

// abortError writes the shared error envelope and stops the chain.
func abortError(c *gin.Context, status int, code, message string) {
	requestID, _ := c.Get(CtxRequestID)

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":      code,
			"message":   message,
			"requestId": requestID,
		},
	})
}
