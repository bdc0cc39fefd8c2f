package middleware

import (
	"net/http"
	"strings"

	"ticketcore/internal/auth"
	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const (
	actorContextKey     = "actor"
	PaymentSecretHeader = "X-Payment-Secret"
)

// JWTAuth resolves the caller identity from a bearer token issued by the auth service
func JWTAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "Authorization header is required", nil, nil)
			c.Abort()
			return
		}

		actor, ok := parseBearer(authHeader, cfg.JWT.Secret)
		if !ok {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid or expired token", nil, nil)
			c.Abort()
			return
		}

		setActor(c, actor)
		c.Next()
	}
}

// OptionalAuth resolves the caller identity if a valid token is present but doesn't require it
func OptionalAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor, ok := parseBearer(c.GetHeader("Authorization"), cfg.JWT.Secret); ok {
			setActor(c, actor)
		}
		c.Next()
	}
}

func parseBearer(authHeader, secret string) (identity.Actor, bool) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return identity.Actor{}, false
	}
	actor, err := auth.ParseAccessToken(secret, parts[1])
	return actor, err == nil
}

// PaymentCollaborator authenticates the payment provider webhook with a shared secret
// compared against a bcrypt hash, and runs the handler as the system actor.
func PaymentCollaborator(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := c.GetHeader(PaymentSecretHeader)
		if secret == "" || cfg.Payment.WebhookSecretHash == "" {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "payment secret is required", nil, nil)
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(cfg.Payment.WebhookSecretHash), []byte(secret)); err != nil {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "invalid payment secret", nil, nil)
			c.Abort()
			return
		}

		setActor(c, identity.System())
		c.Next()
	}
}

// RequireRoles middleware checks if the caller has any of the required roles
func RequireRoles(requiredRoles ...identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := ActorFrom(c)
		if !exists {
			response.RespondJSON(c, "error", http.StatusUnauthorized, "caller identity not found in context", nil, nil)
			c.Abort()
			return
		}

		for _, role := range requiredRoles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		response.RespondJSON(c, "error", http.StatusForbidden, "Insufficient permissions", nil, nil)
		c.Abort()
	}
}

func setActor(c *gin.Context, actor identity.Actor) {
	c.Set(actorContextKey, actor)
	c.Request = c.Request.WithContext(identity.WithActor(c.Request.Context(), actor))
}

// ActorFrom returns the caller identity set by one of the auth middlewares
func ActorFrom(c *gin.Context) (identity.Actor, bool) {
	value, exists := c.Get(actorContextKey)
	if !exists {
		return identity.Actor{}, false
	}
	actor, ok := value.(identity.Actor)
	return actor, ok
}
