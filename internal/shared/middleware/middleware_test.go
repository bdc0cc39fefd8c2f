package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/identity"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("webhook-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		JWT:     config.JWTConfig{Secret: "test-secret"},
		Payment: config.PaymentConfig{WebhookSecretHash: string(hash)},
	}
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID.String(), "role": string(actor.Role)})
	})
	engine.GET("/ping", handlers...)
	return engine
}

func TestJWTAuth_ResolvesActor(t *testing.T) {
	cfg := testConfig(t)
	userID := uuid.New()
	token := signToken(t, cfg.JWT.Secret, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    "ORGANIZER",
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newEngine(JWTAuth(cfg)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
	assert.Contains(t, w.Body.String(), "ORGANIZER")
}

func TestJWTAuth_RejectsSystemRoleAndRefreshTokens(t *testing.T) {
	cfg := testConfig(t)
	cases := map[string]jwt.MapClaims{
		"system role":   {"user_id": uuid.NewString(), "role": "SYSTEM", "type": "access"},
		"refresh token": {"user_id": uuid.NewString(), "role": "USER", "type": "refresh"},
		"bad user id":   {"user_id": "nope", "role": "USER", "type": "access"},
	}

	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, cfg.JWT.Secret, claims))
			newEngine(JWTAuth(cfg)).ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRequireRoles(t *testing.T) {
	cfg := testConfig(t)
	token := signToken(t, cfg.JWT.Secret, jwt.MapClaims{"user_id": uuid.NewString(), "role": "USER", "type": "access"})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	newEngine(JWTAuth(cfg), RequireRoles(identity.RoleOrganizer, identity.RoleAdmin)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPaymentCollaborator(t *testing.T) {
	cfg := testConfig(t)
	engine := newEngine(PaymentCollaborator(cfg))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(PaymentSecretHeader, "webhook-secret")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SYSTEM")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(PaymentSecretHeader, "wrong")
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
