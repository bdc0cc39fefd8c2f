package analytics

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

// GetEventSummary handles GET /api/v1/events/:id/summary
func (ctrl *Controller) GetEventSummary(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	eventID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}

	summary, err := ctrl.service.GetEventSummary(c.Request.Context(), actor, eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Event sales summary retrieved successfully", summary)
}
