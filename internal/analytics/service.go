// Package analytics serves organizer-facing sales summaries. It never writes to a ledger.
package analytics

import (
	"context"
	"fmt"
	"math"
	"time"

	"ticketcore/internal/events"
	"ticketcore/internal/orders"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/constants"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/tiers"
	"ticketcore/pkg/cache"
	"ticketcore/pkg/logger"

	"github.com/google/uuid"
)

type EventLookup interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type TierLister interface {
	ListTiers(ctx context.Context, eventID uuid.UUID) ([]tiers.TierView, error)
}

type OrderTotals interface {
	SummarizeByEvent(ctx context.Context, eventID uuid.UUID) ([]orders.StatusTotals, error)
}

type Service interface {
	GetEventSummary(ctx context.Context, actor identity.Actor, eventID uuid.UUID) (*EventSalesSummary, error)
}

type service struct {
	events EventLookup
	tiers  TierLister
	orders OrderTotals
	cache  cache.Service
	log    *logger.Logger
	now    func() time.Time
}

// NewService builds the summary reader. cacheSvc may be nil.
func NewService(eventLookup EventLookup, tierLister TierLister, orderTotals OrderTotals, cacheSvc cache.Service, log *logger.Logger) Service {
	return &service{
		events: eventLookup,
		tiers:  tierLister,
		orders: orderTotals,
		cache:  cacheSvc,
		log:    log,
		now:    time.Now,
	}
}

// GetEventSummary returns tier and order totals for one event, cached briefly
func (s *service) GetEventSummary(ctx context.Context, actor identity.Actor, eventID uuid.UUID) (*EventSalesSummary, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	// Ownership is checked before the cache so a cached summary never leaks
	if !actor.Owns(event.OrganizerID) {
		return nil, apperr.Forbidden("only the event organizer can view its sales")
	}

	if s.cache == nil {
		return s.build(ctx, event)
	}

	var summary EventSalesSummary
	fetch := func() (interface{}, error) { return s.build(ctx, event) }
	if err := s.cache.GetOrSet(ctx, constants.BuildAnalyticsEventKey(eventID.String()), constants.TTL_ANALYTICS_EVENT, fetch, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (s *service) build(ctx context.Context, event *events.Event) (*EventSalesSummary, error) {
	tierViews, err := s.tiers.ListTiers(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	totals, err := s.orders.SummarizeByEvent(ctx, event.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize orders: %w", err)
	}

	summary := &EventSalesSummary{
		EventID:      event.ID,
		EventName:    event.Name,
		EventStatus:  event.Status,
		PaymentModel: event.PaymentModel,
		Tiers:        make([]TierSales, 0, len(tierViews)),
		ByStatus:     totals,
		GeneratedAt:  s.now().UTC(),
	}

	// Capacity from the tier ledger
	for _, t := range tierViews {
		summary.Tiers = append(summary.Tiers, TierSales{
			TierID:         t.ID,
			Name:           t.Name,
			PriceCents:     t.PriceCents,
			Quantity:       t.Quantity,
			Sold:           t.Sold,
			Available:      t.Available,
			FaceValueCents: int64(t.Sold) * t.PriceCents,
		})
		summary.Capacity += t.Quantity
		summary.Sold += t.Sold
		summary.Available += t.Available
	}
	if summary.Capacity > 0 {
		summary.SellThroughPct = math.Round(float64(summary.Sold)/float64(summary.Capacity)*10000) / 100
	}

	// Money from the orders
	for _, st := range totals {
		switch st.Status {
		case orders.OrderCompleted:
			summary.GrossSalesCents += st.SubtotalCents
			summary.FeesCents += st.FeeCents
		case orders.OrderRefunded:
			summary.RefundedCents += st.TotalCents
		}
	}

	return summary, nil
}
