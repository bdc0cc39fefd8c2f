package tiers

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

// CreateTier handles POST /api/v1/tiers
func (ctrl *Controller) CreateTier(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req CreateTierRequest
	if !request.BindJSON(c, &req) {
		return
	}

	tier, err := ctrl.service.CreateTier(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Tier created successfully", NewTierView(*tier))
}

// GetTier handles GET /api/v1/tiers/:id
func (ctrl *Controller) GetTier(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	tier, err := ctrl.service.GetTier(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Tier retrieved successfully", tier)
}

// ListTiers handles GET /api/v1/events/:id/tiers
func (ctrl *Controller) ListTiers(c *gin.Context) {
	eventID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	tiers, err := ctrl.service.ListTiers(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Tiers retrieved successfully", tiers)
}

// UpdateTier handles PATCH /api/v1/tiers/:id
func (ctrl *Controller) UpdateTier(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateTierRequest
	if !request.BindJSON(c, &req) {
		return
	}

	tier, err := ctrl.service.UpdateTier(c.Request.Context(), actor, id, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Tier updated successfully", NewTierView(*tier))
}

// ResizeTier handles PUT /api/v1/tiers/:id/quantity
func (ctrl *Controller) ResizeTier(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req ResizeTierRequest
	if !request.BindJSON(c, &req) {
		return
	}

	tier, err := ctrl.service.ResizeTier(c.Request.Context(), actor, id, req.Quantity)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Tier resized successfully", NewTierView(*tier))
}

// DeleteTier handles DELETE /api/v1/tiers/:id
func (ctrl *Controller) DeleteTier(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.service.DeleteTier(c.Request.Context(), actor, id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Tier deleted successfully", nil)
}
