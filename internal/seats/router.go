package seats

import (
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(router *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	// Public seat availability
	router.GET("/charts/:id", controller.GetSeatMap)            // GET /api/v1/charts/:id
	router.POST("/charts/:id/check", controller.CheckSeats)     // POST /api/v1/charts/:id/check
	router.GET("/events/:id/chart", controller.GetEventSeatMap) // GET /api/v1/events/:id/chart

	organizer := router.Group("/charts")
	organizer.Use(auth, middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin))
	{
		organizer.POST("", controller.CreateChart)       // POST /api/v1/charts
		organizer.DELETE("/:id", controller.DeleteChart) // DELETE /api/v1/charts/:id
	}
}
