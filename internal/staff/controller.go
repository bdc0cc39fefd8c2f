package staff

import (
	"net/http"

	"ticketcore/internal/shared/utils/request"
	"ticketcore/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreateStaff handles POST /api/v1/staff
func (ctrl *Controller) CreateStaff(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req CreateStaffRequest
	if !request.BindJSON(c, &req) {
		return
	}

	staff, err := ctrl.service.CreateStaff(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Staff created successfully", staff)
}

// GetStaff handles GET /api/v1/staff/:id
func (ctrl *Controller) GetStaff(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	staff, err := ctrl.service.GetStaff(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Staff retrieved successfully", staff)
}

// ListStaff handles GET /api/v1/organizers/:id/staff
func (ctrl *Controller) ListStaff(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	organizerID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	staff, err := ctrl.service.ListStaff(c.Request.Context(), actor, organizerID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Staff retrieved successfully", staff)
}

// DeactivateStaff handles POST /api/v1/staff/:id/deactivate
func (ctrl *Controller) DeactivateStaff(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	staff, err := ctrl.service.DeactivateStaff(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Staff deactivated successfully", staff)
}

// ListSales handles GET /api/v1/staff/:id/sales
func (ctrl *Controller) ListSales(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	sales, err := ctrl.service.ListSales(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Staff sales retrieved successfully", sales)
}

// Reconcile handles POST /api/v1/staff/:id/reconcile
func (ctrl *Controller) Reconcile(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	result, err := ctrl.service.Reconcile(c.Request.Context(), actor, id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Staff reconciled successfully", result)
}

// ResolveReferral handles GET /api/v1/referrals/:code?event_id=
func (ctrl *Controller) ResolveReferral(c *gin.Context) {
	eventID, err := uuid.Parse(c.Query("event_id"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid event_id", nil, nil)
		return
	}
	staff, err := ctrl.service.ResolveReferral(c.Request.Context(), c.Param("code"), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Referral code is valid", gin.H{
		"staff_id":      staff.ID,
		"name":          staff.Name,
		"referral_code": staff.ReferralCode,
	})
}

// RecordSale handles POST /api/v1/referrals/:code/sales
func (ctrl *Controller) RecordSale(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req RecordSaleRequest
	if !request.BindJSON(c, &req) {
		return
	}
	sale, err := ctrl.service.RecordSale(c.Request.Context(), actor, c.Param("code"), req.OrderID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Staff sale recorded successfully", sale)
}
