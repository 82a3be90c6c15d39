package middlewares

// gin context keys shared between middlewares and handlers.
const (
	CtxRequestID = "request_id"
	ctxUserIDKey = "auth.userID"
	ctxRoleKey   = "auth.role"
)
