package orders

import (
	"net/http"

	"ticketcore/internal/shared/utils/request"
	"ticketcore/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateOrder handles POST /api/v1/orders
func (ctrl *Controller) CreateOrder(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !request.BindJSON(c, &req) {
		return
	}

	order, err := ctrl.service.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Order created successfully", order)
}

// CreateBundleOrder handles POST /api/v1/bundles/:id/orders
func (ctrl *Controller) CreateBundleOrder(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	bundleID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req CreateBundleOrderRequest
	req.BundleID = bundleID
	if !request.BindJSON(c, &req) {
		return
	}
	req.BundleID = bundleID

	order, err := ctrl.service.CreateBundleOrder(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Bundle order created successfully", order)
}

// RegisterFree handles POST /api/v1/registrations
func (ctrl *Controller) RegisterFree(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !request.BindJSON(c, &req) {
		return
	}

	order, err := ctrl.service.RegisterFree(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Registration completed successfully", order)
}

// ListMyOrders handles GET /api/v1/orders
func (ctrl *Controller) ListMyOrders(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	orders, err := ctrl.service.ListMyOrders(c.Request.Context(), actor)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Orders retrieved successfully", orders)
}

// GetOrder handles GET /api/v1/orders/:id
func (ctrl *Controller) GetOrder(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	order, err := ctrl.service.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Order retrieved successfully", order)
}

// ListOrderTickets handles GET /api/v1/orders/:id/tickets
func (ctrl *Controller) ListOrderTickets(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	tickets, err := ctrl.service.ListOrderTickets(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Tickets retrieved successfully", tickets)
}

// CancelOrder handles POST /api/v1/orders/:id/cancel
func (ctrl *Controller) CancelOrder(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	order, err := ctrl.service.CancelOrder(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Order cancelled successfully", order)
}

// RefundOrder handles POST /api/v1/orders/:id/refund
func (ctrl *Controller) RefundOrder(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req RefundOrderRequest
	if !request.BindJSON(c, &req) {
		return
	}
	order, err := ctrl.service.RefundOrder(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Order refunded successfully", order)
}

// CancelTicket handles POST /api/v1/tickets/:id/cancel
func (ctrl *Controller) CancelTicket(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	ticket, err := ctrl.service.CancelTicket(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Ticket cancelled successfully", ticket)
}

// ScanTicket handles POST /api/v1/tickets/scan
func (ctrl *Controller) ScanTicket(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req ScanTicketRequest
	if !request.BindJSON(c, &req) {
		return
	}
	ticket, err := ctrl.service.ScanTicket(c.Request.Context(), actor, req.TicketCode)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Ticket scanned successfully", ticket)
}

// CompleteOrder handles POST /api/v1/payments/orders/:id/complete
func (ctrl *Controller) CompleteOrder(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req CompleteOrderRequest
	if !request.BindJSON(c, &req) {
		return
	}
	order, err := ctrl.service.CompleteOrder(c.Request.Context(), id, req.PaymentID, req.PaymentMethod)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Order completed successfully", order)
}

// FailOrder handles POST /api/v1/payments/orders/:id/fail
func (ctrl *Controller) FailOrder(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req FailOrderRequest
	if !request.BindJSON(c, &req) {
		return
	}
	order, err := ctrl.service.FailOrder(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Order marked as failed", order)
}
