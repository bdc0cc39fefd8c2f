package credits_test

import (
	"context"
	"sync"
	"testing"

	"ticketcore/internal/app/apptest"
	"ticketcore/internal/credits"
	"ticketcore/internal/events"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/tiers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredits_FreeFirstEventThenPurchase(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	prePurchase := events.CreateEventRequest{PaymentModel: events.PaymentModelPrePurchase}

	first := h.Event(t, organizer, prePurchase)
	h.Tier(t, organizer, first.ID, "General", 1000, 300)

	balance, err := h.Credits.GetBalance(ctx, organizer, organizer.UserID)
	require.NoError(t, err)
	assert.Equal(t, 300, balance.FreeCreditsGranted)
	assert.Equal(t, 0, balance.CreditsRemaining)

	second := h.Event(t, organizer, events.CreateEventRequest{Name: "Second Show", PaymentModel: events.PaymentModelPrePurchase})
	_, err = h.Tiers.CreateTier(ctx, organizer, tiers.CreateTierRequest{EventID: second.ID, Name: "General", PriceCents: 1000, Quantity: 50})
	require.ErrorIs(t, err, apperr.ErrInsufficientCredits)

	listed, err := h.Tiers.ListTiers(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, listed, "a tier rejected for credits must not be persisted")

	purchase, err := h.Credits.RequestPurchase(ctx, organizer, organizer.UserID, 50)
	require.NoError(t, err)
	assert.Equal(t, credits.TransactionPending, purchase.Status)
	assert.Equal(t, int64(2500), purchase.AmountCents)

	confirmed, err := h.Credits.ConfirmPurchase(ctx, purchase.ID, "pay-credits")
	require.NoError(t, err)
	assert.Equal(t, credits.TransactionCompleted, confirmed.Status)

	_, err = h.Credits.ConfirmPurchase(ctx, purchase.ID, "pay-credits")
	require.NoError(t, err)

	h.Tier(t, organizer, second.ID, "General", 1000, 50)

	balance, err = h.Credits.GetBalance(ctx, organizer, organizer.UserID)
	require.NoError(t, err)
	assert.Equal(t, 350, balance.CreditsTotal)
	assert.Equal(t, 350, balance.CreditsUsed)
	assert.Equal(t, 0, balance.CreditsRemaining)

	_, err = h.Credits.FailPurchase(ctx, purchase.ID, "chargeback")
	assert.ErrorIs(t, err, apperr.ErrPurchaseNotPending)
}

func TestCredits_ConcurrentResizesCannotOverdrawBalance(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{PaymentModel: events.PaymentModelPrePurchase})

	// 300 free credits: two tiers of 100 leave exactly 100 for one more resize
	a := h.Tier(t, organizer, event.ID, "Stalls", 2000, 100)
	b := h.Tier(t, organizer, event.ID, "Circle", 3000, 100)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []uuid.UUID{a.ID, b.ID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.Tiers.ResizeTier(context.Background(), organizer, id, 200)
		}()
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			assert.ErrorIs(t, err, apperr.ErrInsufficientCredits)
		}
	}
	assert.Equal(t, 1, failures)

	balance, err := h.Credits.GetBalance(ctx, organizer, organizer.UserID)
	require.NoError(t, err)
	assert.Equal(t, balance.CreditsTotal, balance.CreditsUsed+balance.CreditsRemaining)
	assert.Equal(t, 300, balance.CreditsUsed)
	assert.Zero(t, balance.CreditsRemaining)

	listed, err := h.Tiers.ListTiers(ctx, event.ID)
	require.NoError(t, err)
	capacity := 0
	for _, tier := range listed {
		capacity += tier.Quantity
	}
	assert.Equal(t, 300, capacity, "tier capacity always matches credits used")
}

func TestCredits_RefundedFreeCreditsStayWithFirstEvent(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()

	first := h.Event(t, organizer, events.CreateEventRequest{PaymentModel: events.PaymentModelPrePurchase})
	tier := h.Tier(t, organizer, first.ID, "General", 1000, 300)

	_, err := h.Tiers.ResizeTier(ctx, organizer, tier.ID, 100)
	require.NoError(t, err)

	balance, err := h.Credits.GetBalance(ctx, organizer, organizer.UserID)
	require.NoError(t, err)
	assert.Equal(t, 200, balance.CreditsRemaining)
	assert.Equal(t, 200, balance.FreeCreditsRemaining)
	assert.Equal(t, 0, balance.PaidRemaining())

	second := h.Event(t, organizer, events.CreateEventRequest{Name: "Second Show", PaymentModel: events.PaymentModelPrePurchase})
	_, err = h.Tiers.CreateTier(ctx, organizer, tiers.CreateTierRequest{EventID: second.ID, Name: "General", Quantity: 10})
	assert.ErrorIs(t, err, apperr.ErrInsufficientCredits)

	_, err = h.Tiers.ResizeTier(ctx, organizer, tier.ID, 250)
	require.NoError(t, err)

	journal := h.Store.Allocations(organizer.UserID)
	require.Len(t, journal, 3)
	net := 0
	for _, entry := range journal {
		net += entry.Delta
	}
	assert.Equal(t, -250, net)
}

func TestCredits_PurchaseRequiresOwnership(t *testing.T) {
	h := apptest.New(t)
	_, err := h.Credits.RequestPurchase(context.Background(), apptest.Organizer(), apptest.Organizer().UserID, 10)
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
