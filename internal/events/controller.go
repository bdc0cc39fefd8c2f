package events

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

// CreateEvent handles POST /api/v1/events
func (ctrl *Controller) CreateEvent(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req CreateEventRequest
	if !request.BindJSON(c, &req) {
		return
	}

	event, err := ctrl.service.CreateEvent(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Event created successfully", event)
}

// GetEvent handles GET /api/v1/events/:id
func (ctrl *Controller) GetEvent(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	event, err := ctrl.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Event retrieved successfully", event)
}

// ListOrganizerEvents handles GET /api/v1/organizers/:id/events
func (ctrl *Controller) ListOrganizerEvents(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	organizerID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	events, err := ctrl.service.ListOrganizerEvents(c.Request.Context(), actor, organizerID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Events retrieved successfully", events)
}

// UpdateStatus handles PATCH /api/v1/events/:id/status
func (ctrl *Controller) UpdateStatus(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateEventStatusRequest
	if !request.BindJSON(c, &req) {
		return
	}
	event, err := ctrl.service.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Event status updated", event)
}
