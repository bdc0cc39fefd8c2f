package seats

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

// CreateChart handles POST /api/v1/charts
func (ctrl *Controller) CreateChart(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	var req CreateChartRequest
	if !request.BindJSON(c, &req) {
		return
	}

	chart, err := ctrl.service.CreateChart(c.Request.Context(), actor, req)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusCreated, "Seating chart created successfully", chart)
}

// GetSeatMap handles GET /api/v1/charts/:id
func (ctrl *Controller) GetSeatMap(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	seatMap, err := ctrl.service.GetSeatMap(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Seat map retrieved successfully", seatMap)
}

// GetEventSeatMap handles GET /api/v1/events/:id/chart
func (ctrl *Controller) GetEventSeatMap(c *gin.Context) {
	eventID, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	chart, err := ctrl.service.GetChartByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	seatMap, err := ctrl.service.GetSeatMap(c.Request.Context(), chart.ID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Seat map retrieved successfully", seatMap)
}

// CheckSeats handles POST /api/v1/charts/:id/check
func (ctrl *Controller) CheckSeats(c *gin.Context) {
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	var req CheckSeatsRequest
	if !request.BindJSON(c, &req) {
		return
	}

	if err := ctrl.service.CheckSeatsFree(c.Request.Context(), id, req.Seats); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Seats are available", gin.H{"available": true})
}

// DeleteChart handles DELETE /api/v1/charts/:id
func (ctrl *Controller) DeleteChart(c *gin.Context) {
	actor, ok := request.Actor(c)
	if !ok {
		return
	}
	id, ok := request.UUIDParam(c, "id")
	if !ok {
		return
	}
	if err := ctrl.service.DeleteChart(c.Request.Context(), actor, id); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondSuccess(c, http.StatusOK, "Seating chart deleted successfully", nil)
}
