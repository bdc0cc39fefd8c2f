package analytics_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ticketcore/internal/analytics"
	"ticketcore/internal/app/apptest"
	"ticketcore/internal/events"
	"ticketcore/internal/orders"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEventSummary(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	buyer := apptest.Buyer()
	event := h.Event(t, organizer, events.CreateEventRequest{Name: "Summer Gala"})
	general := h.Tier(t, organizer, event.ID, "General", 2500, 4)
	vip := h.Tier(t, organizer, event.ID, "VIP", 10000, 2)

	place := func(tierID uuid.UUID, qty int) *orders.Order {
		order, err := h.Orders.CreateOrder(ctx, buyer, orders.CreateOrderRequest{
			EventID: event.ID,
			Items:   []orders.ItemRequest{{TierID: tierID, Quantity: qty}},
		})
		require.NoError(t, err)
		return order
	}

	completed := place(general.ID, 2)
	_, err := h.Orders.CompleteOrder(ctx, completed.ID, "pay-1", "card")
	require.NoError(t, err)

	refunded := place(vip.ID, 1)
	_, err = h.Orders.CompleteOrder(ctx, refunded.ID, "pay-2", "card")
	require.NoError(t, err)
	_, err = h.Orders.RefundOrder(ctx, organizer, refunded.ID, "seat moved")
	require.NoError(t, err)

	place(general.ID, 1)

	summary, err := h.Analytics.GetEventSummary(ctx, organizer, event.ID)
	require.NoError(t, err)

	assert.Equal(t, "Summer Gala", summary.EventName)
	assert.Equal(t, 6, summary.Capacity)
	assert.Equal(t, 2, summary.Sold)
	assert.Equal(t, 4, summary.Available)
	assert.InDelta(t, 33.33, summary.SellThroughPct, 0.001)
	assert.Equal(t, int64(5000), summary.GrossSalesCents)
	assert.Equal(t, int64(0), summary.FeesCents)
	assert.Equal(t, int64(10000), summary.RefundedCents)

	require.Len(t, summary.Tiers, 2)
	assert.Equal(t, general.ID, summary.Tiers[0].TierID)
	assert.Equal(t, int64(5000), summary.Tiers[0].FaceValueCents)
	assert.Equal(t, 0, summary.Tiers[1].Sold)

	require.Len(t, summary.ByStatus, 3)
	assert.Equal(t, orders.OrderCompleted, summary.ByStatus[0].Status)
	assert.Equal(t, orders.OrderPending, summary.ByStatus[1].Status)
	assert.Equal(t, int64(1), summary.ByStatus[1].Tickets, "pending orders are reported but hold no inventory")
	assert.Equal(t, orders.OrderRefunded, summary.ByStatus[2].Status)
}

func TestGetEventSummary_AccessAndEmptyEvent(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})

	_, err := h.Analytics.GetEventSummary(ctx, apptest.Organizer(), event.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = h.Analytics.GetEventSummary(ctx, organizer, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	summary, err := h.Analytics.GetEventSummary(ctx, organizer, event.ID)
	require.NoError(t, err)
	assert.Zero(t, summary.Capacity)
	assert.Zero(t, summary.SellThroughPct)
	assert.Empty(t, summary.Tiers)
	assert.Empty(t, summary.ByStatus)
}

// recordingCache serves GetOrSet through the fetcher and remembers the keys it saw
type recordingCache struct {
	keys []string
	ttls []time.Duration
}

func (c *recordingCache) Get(context.Context, string, interface{}) error { return nil }

func (c *recordingCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }

func (c *recordingCache) Delete(context.Context, ...string) error { return nil }

func (c *recordingCache) Ping(context.Context) error { return nil }

func (c *recordingCache) GetOrSet(_ context.Context, key string, ttl time.Duration, fetcher func() (interface{}, error), dest interface{}) error {
	c.keys = append(c.keys, key)
	c.ttls = append(c.ttls, ttl)
	value, err := fetcher()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func TestGetEventSummary_ReadsThroughCache(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})
	h.Tier(t, organizer, event.ID, "General", 1000, 10)

	c := &recordingCache{}
	svc := analytics.NewService(h.Events, h.Tiers, h.Store.Orders(), c, nil)

	summary, err := svc.GetEventSummary(ctx, organizer, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, summary.Capacity)
	assert.Equal(t, []string{constants.BuildAnalyticsEventKey(event.ID.String())}, c.keys)
	assert.Equal(t, []time.Duration{constants.TTL_ANALYTICS_EVENT}, c.ttls)

	_, err = svc.GetEventSummary(ctx, apptest.Organizer(), event.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Len(t, c.keys, 1, "ownership is checked before the cache")
}
