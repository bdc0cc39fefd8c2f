package ratelimit

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"ticketcore/internal/shared/utils/response"
	"ticketcore/pkg/logger"
	"ticketcore/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Middleware enforces the per-class budget of the matched route
func Middleware(rateLimiter *RateLimiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := getClientIP(c)
		limitType := getRateLimitType(c.Request.Method, c.FullPath())

		result, err := rateLimiter.IsAllowed(c.Request.Context(), clientIP, limitType)
		if err != nil {
			// Redis being down must not take checkout with it
			log.WarnContext(c.Request.Context(), "Rate limit check failed", "error", err.Error())
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(result.ResetTime, 10))

		if !result.Allowed {
			metrics.RateLimited.WithLabelValues(string(limitType)).Inc()
			log.LogRateLimitExceeded(c.Request.Context(), clientIP, c.FullPath())
			response.RespondJSON(c, "error", http.StatusTooManyRequests,
				"Rate limit exceeded", nil, map[string]interface{}{
					"limit":      result.Limit,
					"reset_time": result.ResetTime,
				})
			c.Abort()
			return
		}

		c.Next()
	}
}

func getRateLimitType(method, path string) RateLimitType {
	switch {
	case strings.HasPrefix(path, "/health"),
		strings.HasPrefix(path, "/ping"),
		strings.HasPrefix(path, "/status"),
		strings.HasPrefix(path, "/metrics"):
		return RateLimitTypeHealth

	// Payment collaborator callbacks
	case strings.Contains(path, "/payments/"):
		return RateLimitTypeSettlement

	// Order creation and seat pre-flight
	case method == http.MethodPost && (strings.HasSuffix(path, "/orders") ||
		strings.HasSuffix(path, "/registrations") ||
		strings.HasSuffix(path, "/check")):
		return RateLimitTypeCheckout

	case strings.Contains(path, "/organizers/"),
		strings.Contains(path, "/staff"),
		strings.Contains(path, "/referrals/") && method == http.MethodPost,
		method != http.MethodGet && (strings.Contains(path, "/tiers") ||
			strings.Contains(path, "/charts") ||
			strings.Contains(path, "/bundles") ||
			strings.Contains(path, "/events")):
		return RateLimitTypeOrganizer

	case method == http.MethodGet && (strings.Contains(path, "/events") ||
		strings.Contains(path, "/tiers") ||
		strings.Contains(path, "/charts") ||
		strings.Contains(path, "/bundles") ||
		strings.Contains(path, "/referrals/")):
		return RateLimitTypePublic

	default:
		return RateLimitTypeDefault
	}
}

// extracts real client IP
func getClientIP(c *gin.Context) string {
	if xForwardedFor := c.GetHeader("X-Forwarded-For"); xForwardedFor != "" {
		ip := strings.TrimSpace(strings.Split(xForwardedFor, ",")[0])
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	if xRealIP := c.GetHeader("X-Real-IP"); xRealIP != "" && net.ParseIP(xRealIP) != nil {
		return xRealIP
	}

	ip, _, err := net.SplitHostPort(c.Request.RemoteAddr)
	if err != nil {
		return c.Request.RemoteAddr
	}
	return ip
}
