package bundles

import (
	"net/http"
	"strconv"

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

// CreateBundle handles POST /api/v1/bundles
func (ctrl *Controller) CreateBundle(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req CreateBundleRequest
	if !request.BindJSON(c, &req) {
		return
	}

	bundle, err := ctrl.service.CreateBundle(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Bundle created successfully", bundle)
}

// GetBundle handles GET /api/v1/bundles/:id
func (ctrl *Controller) GetBundle(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	bundle, err := ctrl.service.GetBundle(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Bundle retrieved successfully", bundle)
}

// ListBundles handles GET /api/v1/events/:id/bundles
func (ctrl *Controller) ListBundles(c *gin.Context) {
	eventID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	bundles, err := ctrl.service.ListBundles(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Bundles retrieved successfully", bundles)
}

// CheckAvailability handles GET /api/v1/bundles/:id/availability?quantity=
func (ctrl *Controller) CheckAvailability(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "quantity must be a number", nil, nil)
		return
	}

	availability, err := ctrl.service.IsBundleAvailable(c.Request.Context(), id, quantity)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Bundle availability retrieved successfully", availability)
}
