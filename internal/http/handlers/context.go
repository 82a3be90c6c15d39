package handlers

import (
	"github.com/campushub/campusevents/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

func actorID(ctx *gin.Context) string {
	id, _ := middlewares.UserIDFromContext(ctx)
	return id
}

func actorRole(ctx *gin.Context) string {
	role, _ := middlewares.RoleFromContext(ctx)
	return role
}
