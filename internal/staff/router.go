package staff

import (
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupStaffRoutes(router *gin.RouterGroup, controller *Controller, auth gin.HandlerFunc) {
	router.GET("/referrals/:code", controller.ResolveReferral) // GET /api/v1/referrals/:code?event_id=

	organizerOnly := []gin.HandlerFunc{auth, middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin)}

	staff := router.Group("/staff")
	staff.Use(organizerOnly...)
	{
		staff.POST("", controller.CreateStaff)                    // POST /api/v1/staff
		staff.GET("/:id", controller.GetStaff)                    // GET /api/v1/staff/:id
		staff.POST("/:id/deactivate", controller.DeactivateStaff) // POST /api/v1/staff/:id/deactivate
		staff.GET("/:id/sales", controller.ListSales)             // GET /api/v1/staff/:id/sales
		staff.POST("/:id/reconcile", controller.Reconcile)        // POST /api/v1/staff/:id/reconcile
	}

	router.GET("/organizers/:id/staff", append(organizerOnly, controller.ListStaff)...)    // GET /api/v1/organizers/:id/staff
	router.POST("/referrals/:code/sales", append(organizerOnly, controller.RecordSale)...) // POST /api/v1/referrals/:code/sales
}
