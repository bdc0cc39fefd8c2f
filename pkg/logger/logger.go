package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger wraps slog.Logger with settlement-specific helpers
type Logger struct {
	*slog.Logger
}

// New creates a new logger instance writing to stdout
func New() *Logger {
	return NewWithWriter(os.Stdout, os.Getenv("LOG_LEVEL"))
}

// NewWithWriter creates a logger writing to w at the given level
func NewWithWriter(w io.Writer, levelStr string) *Logger {
	level := getLogLevel(levelStr)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if gin.Mode() == gin.DebugMode {
		// Use text handler for development (more readable)
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return &Logger{
		Logger: slog.New(handler),
	}
}

// Discard returns a logger that drops everything, for tests
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// getLogLevel converts string to slog.Level
func getLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithRequestID adds request ID to logger context
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("request_id", requestID)),
	}
}

// WithError adds error to logger context
func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		Logger: l.Logger.With(slog.String("error", err.Error())),
	}
}

// HTTP logging methods

// LogHTTPRequest logs an HTTP request
func (l *Logger) LogHTTPRequest(c *gin.Context, duration time.Duration) {
	l.Logger.InfoContext(c.Request.Context(),
		"HTTP Request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.String("query", c.Request.URL.RawQuery),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", duration),
		slog.String("ip", c.ClientIP()),
		slog.Int("size", c.Writer.Size()),
	)
}

// LogHTTPError logs an HTTP error
func (l *Logger) LogHTTPError(c *gin.Context, err error, statusCode int) {
	l.Logger.ErrorContext(c.Request.Context(),
		"HTTP Error",
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
		slog.Int("status", statusCode),
		slog.String("error", err.Error()),
		slog.String("ip", c.ClientIP()),
	)
}

// LogRateLimitExceeded logs rate limit exceeded
func (l *Logger) LogRateLimitExceeded(ctx context.Context, ip, endpoint string) {
	l.Logger.WarnContext(ctx,
		"Rate Limit Exceeded",
		slog.String("ip", ip),
		slog.String("endpoint", endpoint),
	)
}

// Settlement logging methods

// LogOrderCreated logs when an order is created in PENDING
func (l *Logger) LogOrderCreated(ctx context.Context, orderID, eventID, buyerID string, totalCents int64) {
	l.Logger.InfoContext(ctx,
		"Order Created",
		slog.String("order_id", orderID),
		slog.String("event_id", eventID),
		slog.String("buyer_id", buyerID),
		slog.Int64("total_cents", totalCents),
	)
}

// LogOrderCompleted logs a completed order and the number of minted tickets
func (l *Logger) LogOrderCompleted(ctx context.Context, orderID, paymentID string, tickets int, replay bool) {
	l.Logger.InfoContext(ctx,
		"Order Completed",
		slog.String("order_id", orderID),
		slog.String("payment_id", paymentID),
		slog.Int("tickets", tickets),
		slog.Bool("replay", replay),
	)
}

// LogOrderCancelled logs an order leaving PENDING or COMPLETED without settlement
func (l *Logger) LogOrderCancelled(ctx context.Context, orderID, status, reason string) {
	l.Logger.InfoContext(ctx,
		"Order Cancelled",
		slog.String("order_id", orderID),
		slog.String("status", status),
		slog.String("reason", reason),
	)
}

// LogTicketCancelled logs a post-completion ticket reversal
func (l *Logger) LogTicketCancelled(ctx context.Context, ticketID, tierID string, seatsReleased int) {
	l.Logger.InfoContext(ctx,
		"Ticket Cancelled",
		slog.String("ticket_id", ticketID),
		slog.String("tier_id", tierID),
		slog.Int("seats_released", seatsReleased),
	)
}

// LogSeatConflict logs a lost seat race
func (l *Logger) LogSeatConflict(ctx context.Context, chartID, seat, orderID string) {
	l.Logger.WarnContext(ctx,
		"Seat Conflict",
		slog.String("chart_id", chartID),
		slog.String("seat", seat),
		slog.String("order_id", orderID),
	)
}

// LogCapacityRejected logs a rejected inventory mutation
func (l *Logger) LogCapacityRejected(ctx context.Context, resource, resourceID string, requested, available int) {
	l.Logger.WarnContext(ctx,
		"Capacity Rejected",
		slog.String("resource", resource),
		slog.String("resource_id", resourceID),
		slog.Int("requested", requested),
		slog.Int("available", available),
	)
}

// LogCreditsAllocated logs a credit ledger movement
func (l *Logger) LogCreditsAllocated(ctx context.Context, organizerID, eventID string, delta, remaining int) {
	l.Logger.InfoContext(ctx,
		"Credits Allocated",
		slog.String("organizer_id", organizerID),
		slog.String("event_id", eventID),
		slog.Int("delta", delta),
		slog.Int("remaining", remaining),
	)
}

// LogStaffSaleRecorded logs a commission attribution
func (l *Logger) LogStaffSaleRecorded(ctx context.Context, staffID, orderID string, tickets int, commissionCents int64) {
	l.Logger.InfoContext(ctx,
		"Staff Sale Recorded",
		slog.String("staff_id", staffID),
		slog.String("order_id", orderID),
		slog.Int("tickets", tickets),
		slog.Int64("commission_cents", commissionCents),
	)
}

// Helper methods for common patterns

// InfoWithContext logs an info message with context
func (l *Logger) InfoWithContext(ctx context.Context, msg string, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.InfoContext(ctx, msg, args...)
}

// ErrorWithContext logs an error message with context
func (l *Logger) ErrorWithContext(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	args := make([]interface{}, 0, len(fields)*2+2)
	args = append(args, slog.String("error", err.Error()))
	for k, v := range fields {
		args = append(args, slog.Any(k, v))
	}
	l.Logger.ErrorContext(ctx, msg, args...)
}

// Global logger instance (can be replaced with dependency injection)
var defaultLogger = New()

// GetDefault returns the default logger instance
func GetDefault() *Logger {
	return defaultLogger
}

// SetDefault sets the default logger instance
func SetDefault(logger *Logger) {
	defaultLogger = logger
}
