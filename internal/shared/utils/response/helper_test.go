package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"ticketcore/internal/shared/apperr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)

	RespondError(c, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondError_Categorical(t *testing.T) {
	err := apperr.Conflict(apperr.CodeSeatAlreadyReserved, "seat A-1-1 is taken").WithDetail("seat", "A-1-1")
	w, body := render(t, err)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "error", body["status"])
	errs := body["errors"].(map[string]interface{})
	assert.Equal(t, "CONFLICT", errs["kind"])
	assert.Equal(t, "SeatAlreadyReserved", errs["code"])
	assert.Equal(t, "A-1-1", errs["details"].(map[string]interface{})["seat"])
}

func TestRespondError_HidesStorageErrors(t *testing.T) {
	w, body := render(t, errors.New(`pq: duplicate key value violates unique constraint "x"`))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body["message"])
	assert.NotContains(t, w.Body.String(), "duplicate key")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusPaymentRequired, StatusFor(apperr.KindCredit))
	assert.Equal(t, http.StatusForbidden, StatusFor(apperr.KindAuthorization))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(apperr.KindReferral))
	assert.Equal(t, http.StatusConflict, StatusFor(apperr.KindCapacityExceeded))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.KindNotFound))
}
