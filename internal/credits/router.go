package credits

import (
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCreditRoutes(router *gin.RouterGroup, controller *Controller, auth, payment gin.HandlerFunc) {
	organizer := router.Group("/organizers/:id/credits")
	organizer.Use(auth, middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin))
	{
		organizer.GET("", controller.GetBalance)                    // GET /api/v1/organizers/:id/credits
		organizer.GET("/transactions", controller.ListTransactions) // GET /api/v1/organizers/:id/credits/transactions
		organizer.POST("/purchases", controller.RequestPurchase)    // POST /api/v1/organizers/:id/credits/purchases
	}

	// Payment collaborator callbacks
	callbacks := router.Group("/payments/credits")
	callbacks.Use(payment)
	{
		callbacks.POST("/:id/confirm", controller.ConfirmPurchase) // POST /api/v1/payments/credits/:id/confirm
		callbacks.POST("/:id/fail", controller.FailPurchase)       // POST /api/v1/payments/credits/:id/fail
	}
}
