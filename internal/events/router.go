package events

import (
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	// Public routes
	router.GET("/events/:id", controller.GetEvent) // GET /api/v1/events/:id

	// Organizer routes
	organizer := router.Group("")
	organizer.Use(auth, middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin))
	{
		organizer.POST("/events", controller.CreateEvent)                       // POST /api/v1/events
		organizer.PATCH("/events/:id/status", controller.UpdateStatus)          // PATCH /api/v1/events/:id/status
		organizer.GET("/organizers/:id/events", controller.ListOrganizerEvents) // GET /api/v1/organizers/:id/events
	}
}
