package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketcore/internal/app"
	"ticketcore/internal/app/apptest"
	"ticketcore/internal/auth"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtSecret     = "router-test-secret"
	paymentSecret = "router-test-webhook"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Errors struct {
		Kind string `json:"kind"`
		Code string `json:"code"`
	} `json:"errors"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, health HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte(paymentSecret), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := apptest.Config()
	cfg.APIPrefix = "/api"
	cfg.APIVersion = "v1"
	cfg.JWT.Secret = jwtSecret
	cfg.Payment.WebhookSecretHash = string(hash)

	h := apptest.NewWithInfra(t, cfg, app.Infra{})
	engine := gin.New()
	NewRouter(cfg, h.Services, health).SetupRoutes(engine)
	return &testServer{t: t, engine: engine}
}

func (s *testServer) token(actor identity.Actor) string {
	token, err := auth.IssueAccessToken(jwtSecret, actor, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path string, body any, headers map[string]string) (int, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (s *testServer) as(actor identity.Actor) map[string]string {
	return map[string]string{"Authorization": "Bearer " + s.token(actor)}
}

func decodeID(t *testing.T, env envelope) string {
	t.Helper()
	var body struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.NotEmpty(t, body.ID)
	return body.ID
}

func TestCheckoutOverHTTP(t *testing.T) {
	s := newTestServer(t, nil)
	organizer := apptest.Organizer()

	code, env := s.do(http.MethodPost, "/api/v1/events", map[string]any{
		"name":      "Harbour Lights",
		"starts_at": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}, s.as(organizer))
	require.Equal(t, http.StatusCreated, code)
	eventID := decodeID(t, env)

	code, _ = s.do(http.MethodPatch, "/api/v1/events/"+eventID+"/status", map[string]any{"status": "published"}, s.as(organizer))
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(http.MethodPost, "/api/v1/tiers", map[string]any{
		"event_id":    eventID,
		"name":        "General",
		"price_cents": 2500,
		"quantity":    1,
	}, s.as(organizer))
	require.Equal(t, http.StatusCreated, code)
	tierID := decodeID(t, env)

	order := map[string]any{
		"event_id": eventID,
		"items":    []map[string]any{{"tier_id": tierID, "quantity": 1}},
	}
	code, env = s.do(http.MethodPost, "/api/v1/orders", order, s.as(apptest.Buyer()))
	require.Equal(t, http.StatusCreated, code)
	orderID := decodeID(t, env)

	complete := map[string]any{"payment_id": "pay-http-1", "payment_method": "card"}
	code, _ = s.do(http.MethodPost, "/api/v1/payments/orders/"+orderID+"/complete", complete, nil)
	assert.Equal(t, http.StatusUnauthorized, code, "payment callbacks require the shared secret")

	code, env = s.do(http.MethodPost, "/api/v1/payments/orders/"+orderID+"/complete", complete,
		map[string]string{middleware.PaymentSecretHeader: paymentSecret})
	require.Equal(t, http.StatusOK, code)
	var completed struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &completed))
	assert.Equal(t, "COMPLETED", completed.Status)

	code, env = s.do(http.MethodPost, "/api/v1/orders", order, s.as(apptest.Buyer()))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CAPACITY_EXCEEDED", env.Errors.Kind)

	code, env = s.do(http.MethodGet, "/api/v1/tiers/"+tierID, nil, nil)
	require.Equal(t, http.StatusOK, code)
	var view struct {
		Sold      int `json:"sold"`
		Available int `json:"available"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, 1, view.Sold)
	assert.Zero(t, view.Available)

	code, _ = s.do(http.MethodGet, "/api/v1/events/"+eventID+"/summary", nil, s.as(apptest.Buyer()))
	assert.Equal(t, http.StatusForbidden, code)

	code, env = s.do(http.MethodGet, "/api/v1/events/"+eventID+"/summary", nil, s.as(organizer))
	require.Equal(t, http.StatusOK, code)
	var summary struct {
		Sold            int   `json:"sold"`
		GrossSalesCents int64 `json:"gross_sales_cents"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.Sold)
	assert.Equal(t, int64(2500), summary.GrossSalesCents)
}

func TestOrganizerRoutesRequireRole(t *testing.T) {
	s := newTestServer(t, nil)

	code, _ := s.do(http.MethodPost, "/api/v1/events", map[string]any{"name": "Nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(http.MethodPost, "/api/v1/events", map[string]any{"name": "Nope"}, s.as(apptest.Buyer()))
	assert.Equal(t, http.StatusForbidden, code)
}

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	code, _ := s.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, code)

	down := newTestServer(t, func(context.Context) error { return errors.New("postgres unreachable") })
	code, _ = down.do(http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}
