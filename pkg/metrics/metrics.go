package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_orders_completed_total",
		Help: "Orders moved to COMPLETED, by kind (tier, bundle, free) and whether it was a replayed delivery.",
	}, []string{"kind", "replay"})

	CompletionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_order_completion_failures_total",
		Help: "Order completions rejected, by error code.",
	}, []string{"code"})

	CompletionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_order_completion_seconds",
		Help:    "Time spent inside the completion transaction.",
		Buckets: prometheus.DefBuckets,
	})

	OrderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_order_transitions_total",
		Help: "Order status transitions other than completion.",
	}, []string{"status"})

	TicketsMinted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_tickets_minted_total",
		Help: "Tickets minted at order completion.",
	})

	TicketsReversed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_tickets_reversed_total",
		Help: "Tickets cancelled or refunded after completion.",
	}, []string{"status"})

	SeatConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_seat_conflicts_total",
		Help: "Seat reservations lost to a concurrent holder.",
	})

	CreditMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_credit_movements_total",
		Help: "Organizer credits moved, by direction (allocate, refund, purchase).",
	}, []string{"direction"})

	CommissionCents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_commission_cents_total",
		Help: "Staff commission recorded, in minor currency units.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter, by limit class.",
	}, []string{"class"})
)

// ObserveCompletion records the duration of a completion attempt
func ObserveCompletion(start time.Time) {
	CompletionDuration.Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry for scraping
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
