package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketcore/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *Config {
	return &Config{
		Enabled:          true,
		WindowDuration:   time.Minute,
		DefaultRequests:  60,
		CheckoutRequests: 2,
		HealthRequests:   100,
	}
}

func windowArgs(limit int) []interface{} {
	return []interface{}{
		fixedNow.Add(-time.Minute).UnixMilli(),
		fixedNow.UnixMilli(),
		limit,
		60,
		fixedNow.UnixNano(),
	}
}

func newLimiter(cfg *Config) (*RateLimiter, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	return NewRateLimiter(client, cfg).WithClock(func() time.Time { return fixedNow }), mock
}

func TestIsAllowed_WithinBudget(t *testing.T) {
	limiter, mock := newLimiter(testConfig())
	mock.ExpectEval(slidingWindowScript, []string{"ticketcore:ratelimit:10.0.0.1:checkout"}, windowArgs(2)...).
		SetVal([]interface{}{int64(1), int64(1)})

	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeCheckout)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.Equal(t, 2, result.Limit)
	assert.Equal(t, 1, result.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsAllowed_OverBudget(t *testing.T) {
	limiter, mock := newLimiter(testConfig())
	mock.ExpectEval(slidingWindowScript, []string{"ticketcore:ratelimit:10.0.0.1:checkout"}, windowArgs(2)...).
		SetVal([]interface{}{int64(3), int64(0)})

	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeCheckout)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Zero(t, result.Remaining)
}

func TestIsAllowed_BypassesRedis(t *testing.T) {
	disabled := testConfig()
	disabled.Enabled = false
	limiter, mock := newLimiter(disabled)
	result, err := limiter.IsAllowed(context.Background(), "10.0.0.1", RateLimitTypeCheckout)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())

	whitelisted := testConfig()
	whitelisted.WhitelistedIPs = []string{"10.0.0.9"}
	limiter, mock = newLimiter(whitelisted)
	result, err = limiter.IsAllowed(context.Background(), "10.0.0.9", RateLimitTypeCheckout)
	require.NoError(t, err)
	assert.True(t, result.Allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRateLimitType(t *testing.T) {
	cases := []struct {
		method, path string
		want         RateLimitType
	}{
		{http.MethodGet, "/health", RateLimitTypeHealth},
		{http.MethodGet, "/metrics", RateLimitTypeHealth},
		{http.MethodPost, "/api/v1/payments/orders/:id/complete", RateLimitTypeSettlement},
		{http.MethodPost, "/api/v1/orders", RateLimitTypeCheckout},
		{http.MethodPost, "/api/v1/bundles/:id/orders", RateLimitTypeCheckout},
		{http.MethodPost, "/api/v1/charts/:id/check", RateLimitTypeCheckout},
		{http.MethodPost, "/api/v1/tiers", RateLimitTypeOrganizer},
		{http.MethodGet, "/api/v1/organizers/:id/credits", RateLimitTypeOrganizer},
		{http.MethodGet, "/api/v1/events/:id/tiers", RateLimitTypePublic},
		{http.MethodGet, "/api/v1/orders/:id", RateLimitTypeDefault},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, getRateLimitType(tc.method, tc.path), "%s %s", tc.method, tc.path)
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter, mock := newLimiter(testConfig())

	engine := gin.New()
	engine.Use(Middleware(limiter, logger.Discard()))
	engine.POST("/api/v1/orders", func(c *gin.Context) { c.Status(http.StatusCreated) })

	key := []string{"ticketcore:ratelimit:192.0.2.1:checkout"}
	mock.ExpectEval(slidingWindowScript, key, windowArgs(2)...).SetVal([]interface{}{int64(3), int64(0)})
	mock.ExpectEval(slidingWindowScript, key, windowArgs(2)...).SetErr(errors.New("connection refused"))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	// a Redis outage fails open
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
