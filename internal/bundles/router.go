package bundles

import (
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBundleRoutes(router *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	router.GET("/events/:id/bundles", controller.ListBundles)             // GET /api/v1/events/:id/bundles
	router.GET("/bundles/:id", controller.GetBundle)                      // GET /api/v1/bundles/:id
	router.GET("/bundles/:id/availability", controller.CheckAvailability) // GET /api/v1/bundles/:id/availability

	organizer := router.Group("/bundles")
	organizer.Use(auth, middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin))
	{
		organizer.POST("", controller.CreateBundle) // POST /api/v1/bundles
	}
}
