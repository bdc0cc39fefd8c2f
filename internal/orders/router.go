package orders

import (
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

// SetupOrderRoutes registers checkout, ticket and payment callback routes.
// checkout is an optional extra middleware (rate limiting) for order creation.
func SetupOrderRoutes(router *gin.RouterGroup, controller *Controller, auth, payment gin.HandlerFunc, checkout ...gin.HandlerFunc) {
	create := append([]gin.HandlerFunc{auth}, checkout...)

	router.POST("/orders", append(create, controller.CreateOrder)...)                   // POST /api/v1/orders
	router.POST("/bundles/:id/orders", append(create, controller.CreateBundleOrder)...) // POST /api/v1/bundles/:id/orders
	router.POST("/registrations", append(create, controller.RegisterFree)...)           // POST /api/v1/registrations

	orderGroup := router.Group("/orders")
	orderGroup.Use(auth)
	{
		orderGroup.GET("", controller.ListMyOrders)                                                                                 // GET /api/v1/orders
		orderGroup.GET("/:id", controller.GetOrder)                                                                                 // GET /api/v1/orders/:id
		orderGroup.GET("/:id/tickets", controller.ListOrderTickets)                                                                 // GET /api/v1/orders/:id/tickets
		orderGroup.POST("/:id/cancel", controller.CancelOrder)                                                                      // POST /api/v1/orders/:id/cancel
		orderGroup.POST("/:id/refund", middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin), controller.RefundOrder) // POST /api/v1/orders/:id/refund
	}

	ticketGroup := router.Group("/tickets")
	ticketGroup.Use(auth)
	{
		ticketGroup.POST("/:id/cancel", controller.CancelTicket)                                                              // POST /api/v1/tickets/:id/cancel
		ticketGroup.POST("/scan", middleware.RequireRoles(identity.RoleOrganizer, identity.RoleAdmin), controller.ScanTicket) // POST /api/v1/tickets/scan
	}

	paymentGroup := router.Group("/payments/orders")
	paymentGroup.Use(payment)
	{
		paymentGroup.POST("/:id/complete", controller.CompleteOrder) // POST /api/v1/payments/orders/:id/complete
		paymentGroup.POST("/:id/fail", controller.FailOrder)         // POST /api/v1/payments/orders/:id/fail
	}
}
