// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"ticketcore/internal/analytics"
	"ticketcore/internal/app"
	"ticketcore/internal/bundles"
	"ticketcore/internal/credits"
	"ticketcore/internal/events"
	"ticketcore/internal/orders"
	"ticketcore/internal/seats"
	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/middleware"
	"ticketcore/internal/staff"
	"ticketcore/internal/tiers"
	"ticketcore/pkg/metrics"

	"github.com/gin-gonic/gin"
)

const serviceName = "ticketcore-settlement"

// HealthCheck reports whether the backing stores are reachable
type HealthCheck func(ctx context.Context) error

// Router holds all route dependencies
type Router struct {
	config   *config.Config
	services *app.Services
	health   HealthCheck
}

// NewRouter creates a new router instance. health may be nil for the in-memory store.
func NewRouter(cfg *config.Config, services *app.Services, health HealthCheck) *Router {
	if health == nil {
		health = func(context.Context) error { return nil }
	}
	return &Router{
		config:   cfg,
		services: services,
		health:   health,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	auth := middleware.JWTAuth(r.config)
	payment := middleware.PaymentCollaborator(r.config)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		events.SetupEventRoutes(api, events.NewController(r.services.Events), auth)
		tiers.SetupTierRoutes(api, tiers.NewController(r.services.Tiers), auth)
		credits.SetupCreditRoutes(api, credits.NewController(r.services.Credits), auth, payment)
		seats.SetupSeatRoutes(api, seats.NewController(r.services.Seats), auth)
		bundles.SetupBundleRoutes(api, bundles.NewController(r.services.Bundles), auth)
		staff.SetupStaffRoutes(api, staff.NewController(r.services.Staff), auth)
		orders.SetupOrderRoutes(api, orders.NewController(r.services.Orders), auth, payment)
		analytics.SetupAnalyticsRoutes(api, analytics.NewController(r.services.Analytics), auth)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   serviceName,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   serviceName,
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":       "operational",
			"api_version":  r.config.APIVersion,
			"memory_store": r.config.UsesMemoryStore(),
			"timestamp":    time.Now(),
		})
	})

	engine.GET("/metrics", metrics.Handler())
}
