package response

import (
	"net/http"

	"ticketcore/internal/shared/apperr"
	"ticketcore/pkg/logger"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

func RespondSuccess(c *gin.Context, code int, message string, data interface{}) {
	RespondJSON(c, "success", code, message, data, nil)
}

// RespondError renders a categorical error. Anything else is logged and hidden behind a 500.
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		logger.GetDefault().LogHTTPError(c, err, http.StatusInternalServerError)
		RespondJSON(c, "error", http.StatusInternalServerError, "internal server error", nil, nil)
		return
	}

	code := StatusFor(appErr.Kind)
	RespondJSON(c, "error", code, appErr.Message, nil, ErrorBody{
		Kind:    string(appErr.Kind),
		Code:    string(appErr.Code),
		Details: appErr.Details,
	})
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindCapacityExceeded, apperr.KindConflict, apperr.KindState:
		return http.StatusConflict
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindReferral:
		return http.StatusUnprocessableEntity
	case apperr.KindCredit:
		return http.StatusPaymentRequired
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondValidation renders request binding or validator failures
func RespondValidation(c *gin.Context, err error) {
	RespondJSON(c, "error", http.StatusBadRequest, "invalid request body", nil, ErrorBody{
		Kind:    string(apperr.KindValidation),
		Code:    string(apperr.CodeInvalidInput),
		Details: map[string]interface{}{"reason": err.Error()},
	})
}
