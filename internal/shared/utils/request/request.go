package request

import (
	"net/http"

	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"
	"ticketcore/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// UUIDParam parses a path parameter, writing a 400 response on failure
func UUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondJSON(c, "error", http.StatusBadRequest, "invalid "+name, nil, nil)
		return uuid.Nil, false
	}
	return id, true
}

// Actor returns the authenticated caller, writing a 401 response when missing
func Actor(c *gin.Context) (identity.Actor, bool) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.RespondJSON(c, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return identity.Actor{}, false
	}
	return actor, true
}

// BindJSON decodes and validates the body into dest, writing a 400 response on failure
func BindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.RespondValidation(c, err)
		return false
	}
	if err := validate.Struct(dest); err != nil {
		response.RespondValidation(c, err)
		return false
	}
	return true
}
