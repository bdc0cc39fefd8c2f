package tiers_test

import (
	"context"
	"testing"

	"ticketcore/internal/app/apptest"
	"ticketcore/internal/events"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/tiers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTierLedger_SoldCounterBounds(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})
	tier := h.Tier(t, organizer, event.ID, "General", 1500, 3)

	require.NoError(t, h.Tiers.IncrementSold(ctx, tier.ID, 2))

	assert.ErrorIs(t, h.Tiers.DeleteTier(ctx, organizer, tier.ID), apperr.ErrTierHasSales)

	_, err := h.Tiers.ResizeTier(ctx, organizer, tier.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrTierQuantityBelowSold)

	resized, err := h.Tiers.ResizeTier(ctx, organizer, tier.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, resized.Quantity)

	assert.ErrorIs(t, h.Tiers.IncrementSold(ctx, tier.ID, 1), apperr.ErrTierSoldOutOfBounds)

	require.NoError(t, h.Tiers.DecrementSold(ctx, tier.ID, 5))
	view, err := h.Tiers.GetTier(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, view.Sold)
	assert.Equal(t, 2, view.Available)

	require.NoError(t, h.Tiers.DeleteTier(ctx, organizer, tier.ID))
	_, err = h.Tiers.GetTier(ctx, tier.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestTierLedger_Ownership(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})

	_, err := h.Tiers.CreateTier(ctx, apptest.Organizer(), tiers.CreateTierRequest{EventID: event.ID, Name: "Sneaky", Quantity: 5})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	tier := h.Tier(t, organizer, event.ID, "General", 1500, 3)
	name := "Renamed"
	_, err = h.Tiers.UpdateTier(ctx, apptest.Organizer(), tier.ID, tiers.UpdateTierRequest{Name: &name})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTierLedger_FreeEventsStayFree(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{IsFree: true})

	_, err := h.Tiers.CreateTier(ctx, organizer, tiers.CreateTierRequest{EventID: event.ID, Name: "Paid", PriceCents: 100, Quantity: 5})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	tier := h.Tier(t, organizer, event.ID, "Entry", 0, 5)
	price := int64(500)
	_, err = h.Tiers.UpdateTier(ctx, organizer, tier.ID, tiers.UpdateTierRequest{PriceCents: &price})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestTierLedger_ListOrderedByPrice(t *testing.T) {
	h := apptest.New(t)
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})
	h.Tier(t, organizer, event.ID, "VIP", 9000, 5)
	h.Tier(t, organizer, event.ID, "Early", 1000, 5)
	h.Tier(t, organizer, event.ID, "General", 3000, 5)

	listed, err := h.Tiers.ListTiers(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []string{"Early", "General", "VIP"}, []string{listed[0].Name, listed[1].Name, listed[2].Name})
}
