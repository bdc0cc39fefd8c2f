package analytics

import (
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupAnalyticsRoutes(router *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	router.GET("/events/:id/summary", auth, middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin), controller.GetEventSummary) // GET /api/v1/events/:id/summary
}
