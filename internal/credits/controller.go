package credits

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

// GetBalance handles GET /api/v1/organizers/:id/credits
func (ctrl *Controller) GetBalance(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	organizerID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}

	balance, err := ctrl.service.GetBalance(c.Request.Context(), actor, organizerID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Credit balance retrieved successfully", balance)
}

// ListTransactions handles GET /api/v1/organizers/:id/credits/transactions
func (ctrl *Controller) ListTransactions(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	organizerID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}

	txs, err := ctrl.service.ListTransactions(c.Request.Context(), actor, organizerID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Credit transactions retrieved successfully", txs)
}

// RequestPurchase handles POST /api/v1/organizers/:id/credits/purchases
func (ctrl *Controller) RequestPurchase(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	organizerID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req PurchaseRequest
	if !request.BindJSON(c, &req) {
		return
	}

	tx, err := ctrl.service.RequestPurchase(c.Request.Context(), actor, organizerID, req.Credits)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Credit purchase pending payment", tx)
}

// ConfirmPurchase handles POST /api/v1/payments/credits/:id/confirm
func (ctrl *Controller) ConfirmPurchase(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req ConfirmPurchaseRequest
	if !request.BindJSON(c, &req) {
		return
	}

	tx, err := ctrl.service.ConfirmPurchase(c.Request.Context(), id, req.PaymentID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Credit purchase confirmed", tx)
}

// FailPurchase handles POST /api/v1/payments/credits/:id/fail
func (ctrl *Controller) FailPurchase(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req FailPurchaseRequest
	if !request.BindJSON(c, &req) {
		return
	}

	tx, err := ctrl.service.FailPurchase(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Credit purchase marked failed", tx)
}
