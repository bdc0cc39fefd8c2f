package analytics

import (
	"time"

	"ticketcore/internal/events"
	"ticketcore/internal/orders"

	"github.com/google/uuid"
)

// TierSales is one tier's inventory position in a sales summary
type TierSales struct {
	TierID     uuid.UUID `json:"tier_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	Sold       int       `json:"sold"`
	Available  int       `json:"available"`
	// FaceValueCents is sold times the current price; locked order prices may differ
	FaceValueCents int64 `json:"face_value_cents"`
}

// EventSalesSummary is a read-only projection over the tier ledger and orders
type EventSalesSummary struct {
	EventID      uuid.UUID           `json:"event_id"`
	EventName    string              `json:"event_name"`
	EventStatus  events.EventStatus  `json:"event_status"`
	PaymentModel events.PaymentModel `json:"payment_model"`

	Capacity       int     `json:"capacity"`
	Sold           int     `json:"sold"`
	Available      int     `json:"available"`
	SellThroughPct float64 `json:"sell_through_pct"`

	GrossSalesCents int64 `json:"gross_sales_cents"`
	FeesCents       int64 `json:"fees_cents"`
	RefundedCents   int64 `json:"refunded_cents"`

	Tiers    []TierSales           `json:"tiers"`
	ByStatus []orders.StatusTotals `json:"orders_by_status"`

	GeneratedAt time.Time `json:"generated_at"`
}
