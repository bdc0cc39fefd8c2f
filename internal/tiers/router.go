package tiers

import (
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTierRoutes(router *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	// Public availability reads
	router.GET("/events/:id/tiers", controller.ListTiers) // GET /api/v1/events/:id/tiers
	router.GET("/tiers/:id", controller.GetTier)          // GET /api/v1/tiers/:id

	organizer := router.Group("/tiers")
	organizer.Use(auth, middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin))
	{
		organizer.POST("", controller.CreateTier)             // POST /api/v1/tiers
		organizer.PATCH("/:id", controller.UpdateTier)        // PATCH /api/v1/tiers/:id
		organizer.PUT("/:id/quantity", controller.ResizeTier) // PUT /api/v1/tiers/:id/quantity
		organizer.DELETE("/:id", controller.DeleteTier)       // DELETE /api/v1/tiers/:id
	}
}
