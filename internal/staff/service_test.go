package staff_test

import (
	"context"
	"testing"

	"ticketcore/internal/app/apptest"
	"ticketcore/internal/events"
	"ticketcore/internal/orders"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/staff"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeOrder creates an order for qty tickets of tierID and optionally completes it
func placeOrder(t *testing.T, h *apptest.Harness, eventID, tierID uuid.UUID, qty int, complete bool) *orders.Order {
	t.Helper()
	ctx := context.Background()
	order, err := h.Orders.CreateOrder(ctx, apptest.Buyer(), orders.CreateOrderRequest{
		EventID: eventID,
		Items:   []orders.ItemRequest{{TierID: tierID, Quantity: qty}},
	})
	require.NoError(t, err)
	if !complete {
		return order
	}
	order, err = h.Orders.CompleteOrder(ctx, order.ID, "pay-"+order.ID.String(), "card")
	require.NoError(t, err)
	return order
}

func TestCommissionLedger_RecordReverseReconcile(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})

	member, err := h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		EventID:         &event.ID,
		Name:            "Door Team",
		CommissionType:  staff.CommissionFixed,
		CommissionValue: decimal.NewFromInt(250),
	})
	require.NoError(t, err)
	assert.Regexp(t, `^REF[0-9A-F]{8}$`, member.ReferralCode)

	tier := h.Tier(t, organizer, event.ID, "General", 3000, 10)
	order := placeOrder(t, h, event.ID, tier.ID, 3, true)

	sale, err := h.Staff.RecordSale(ctx, organizer, member.ReferralCode, order.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, sale.TicketCount)
	assert.Equal(t, int64(9000), sale.SaleAmountCents)
	assert.Equal(t, int64(750), sale.CommissionCents)

	_, err = h.Staff.RecordSale(ctx, organizer, member.ReferralCode, order.ID)
	assert.ErrorIs(t, err, apperr.ErrStaffSaleExists)

	reversal, err := h.Staff.ReverseSale(ctx, member.ID, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reversal)
	assert.Equal(t, -3, reversal.TicketCount)
	assert.Equal(t, int64(-750), reversal.CommissionCents)

	again, err := h.Staff.ReverseSale(ctx, member.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, reversal.ID, again.ID)

	totals, err := h.Staff.GetStaff(ctx, organizer, member.ID)
	require.NoError(t, err)
	assert.Zero(t, totals.TicketsSold)
	assert.Zero(t, totals.CommissionEarnedCents)

	sales, err := h.Staff.ListSales(ctx, organizer, member.ID)
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	report, err := h.Staff.Reconcile(ctx, organizer, member.ID)
	require.NoError(t, err)
	assert.False(t, report.Drifted)

	require.NoError(t, h.Store.Staff().AddTotals(ctx, member.ID, 4, 1000))
	report, err = h.Staff.Reconcile(ctx, organizer, member.ID)
	require.NoError(t, err)
	assert.True(t, report.Drifted)
	assert.Equal(t, 4, report.StoredTicketsSold)
	assert.Zero(t, report.DerivedTicketsSold)

	totals, err = h.Staff.GetStaff(ctx, organizer, member.ID)
	require.NoError(t, err)
	assert.Zero(t, totals.TicketsSold)
}

func TestResolveReferral(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})
	other := h.Event(t, organizer, events.CreateEventRequest{Name: "Other Night"})
	stranger := h.Event(t, apptest.Organizer(), events.CreateEventRequest{Name: "Someone Else"})

	scoped, err := h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		EventID:         &event.ID,
		Name:            "Scoped",
		CommissionType:  staff.CommissionPercentage,
		CommissionValue: decimal.NewFromInt(5),
		ReferralCode:    "scoped1",
	})
	require.NoError(t, err)
	assert.Equal(t, "SCOPED1", scoped.ReferralCode)

	wide, err := h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		Name:            "Org Wide",
		CommissionType:  staff.CommissionPercentage,
		CommissionValue: decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	resolved, err := h.Staff.ResolveReferral(ctx, "scoped1", event.ID)
	require.NoError(t, err)
	assert.Equal(t, scoped.ID, resolved.ID)

	_, err = h.Staff.ResolveReferral(ctx, "SCOPED1", other.ID)
	assert.ErrorIs(t, err, apperr.ErrReferralEventMismatch)

	_, err = h.Staff.ResolveReferral(ctx, wide.ReferralCode, other.ID)
	require.NoError(t, err)
	_, err = h.Staff.ResolveReferral(ctx, wide.ReferralCode, stranger.ID)
	assert.ErrorIs(t, err, apperr.ErrReferralEventMismatch)

	_, err = h.Staff.ResolveReferral(ctx, "MISSING", event.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidReferralCode)
	_, err = h.Staff.ResolveReferral(ctx, "  ", event.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidReferralCode)

	_, err = h.Staff.DeactivateStaff(ctx, organizer, scoped.ID)
	require.NoError(t, err)
	_, err = h.Staff.ResolveReferral(ctx, "SCOPED1", event.ID)
	assert.ErrorIs(t, err, apperr.ErrStaffInactive)

	sale, err := h.Staff.RecordAttributedSale(ctx, scoped.ID, staff.SaleInput{
		OrderID: uuid.New(), EventID: event.ID, TicketCount: 1, SaleAmountCents: 2000,
	})
	require.NoError(t, err, "attribution captured before deactivation still settles")
	assert.Equal(t, int64(100), sale.CommissionCents)
}

func TestRecordSale_ReadsTheStoredOrder(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	eventA := h.Event(t, organizer, events.CreateEventRequest{Name: "Night A"})
	eventB := h.Event(t, organizer, events.CreateEventRequest{Name: "Night B"})
	tierA := h.Tier(t, organizer, eventA.ID, "General", 1000, 10)
	tierB := h.Tier(t, organizer, eventB.ID, "General", 1000, 10)

	member, err := h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		EventID:         &eventA.ID,
		Name:            "Promoter A",
		CommissionType:  staff.CommissionPercentage,
		CommissionValue: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	onB := placeOrder(t, h, eventB.ID, tierB.ID, 1, true)
	_, err = h.Staff.RecordSale(ctx, organizer, member.ReferralCode, onB.ID)
	assert.ErrorIs(t, err, apperr.ErrReferralEventMismatch, "the order's event decides, not the caller")

	pending := placeOrder(t, h, eventA.ID, tierA.ID, 1, false)
	_, err = h.Staff.RecordSale(ctx, organizer, member.ReferralCode, pending.ID)
	assert.ErrorIs(t, err, apperr.ErrOrderNotCompleted)

	_, err = h.Staff.RecordSale(ctx, organizer, member.ReferralCode, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	onA := placeOrder(t, h, eventA.ID, tierA.ID, 2, true)
	_, err = h.Staff.RecordSale(ctx, apptest.Organizer(), member.ReferralCode, onA.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	sales, err := h.Staff.ListSales(ctx, organizer, member.ID)
	require.NoError(t, err)
	assert.Empty(t, sales, "rejected recordings leave no trace")

	sale, err := h.Staff.RecordSale(ctx, organizer, member.ReferralCode, onA.ID)
	require.NoError(t, err)
	assert.Equal(t, eventA.ID, sale.EventID)
	assert.Equal(t, 2, sale.TicketCount)
	assert.Equal(t, int64(2000), sale.SaleAmountCents)
	assert.Equal(t, int64(200), sale.CommissionCents)

	attributed, err := h.Orders.GetOrder(ctx, identity.System(), onA.ID)
	require.NoError(t, err)
	require.NotNil(t, attributed.SoldByStaffID)
	assert.Equal(t, member.ID, *attributed.SoldByStaffID)

	tickets, err := h.Orders.ListOrderTickets(ctx, identity.System(), onA.ID)
	require.NoError(t, err)
	for _, ticket := range tickets {
		require.NotNil(t, ticket.SoldByStaffID)
		assert.Equal(t, member.ID, *ticket.SoldByStaffID)
	}

	// A refund of a manually attributed order reverses the commission too
	_, err = h.Orders.RefundOrder(ctx, organizer, onA.ID, "cancelled booking")
	require.NoError(t, err)
	totals, err := h.Staff.GetStaff(ctx, organizer, member.ID)
	require.NoError(t, err)
	assert.Zero(t, totals.TicketsSold)
	assert.Zero(t, totals.CommissionEarnedCents)
}

func TestRecordSale_RejectsOrdersAttributedAtCheckout(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})
	tier := h.Tier(t, organizer, event.ID, "General", 1000, 10)

	first, err := h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		Name: "First", CommissionType: staff.CommissionFixed, CommissionValue: decimal.NewFromInt(100), ReferralCode: "FIRST",
	})
	require.NoError(t, err)
	second, err := h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		Name: "Second", CommissionType: staff.CommissionFixed, CommissionValue: decimal.NewFromInt(100), ReferralCode: "SECOND",
	})
	require.NoError(t, err)

	order, err := h.Orders.CreateOrder(ctx, apptest.Buyer(), orders.CreateOrderRequest{
		EventID:      event.ID,
		Items:        []orders.ItemRequest{{TierID: tier.ID, Quantity: 1}},
		ReferralCode: first.ReferralCode,
	})
	require.NoError(t, err)
	_, err = h.Orders.CompleteOrder(ctx, order.ID, "pay-1", "card")
	require.NoError(t, err)

	_, err = h.Staff.RecordSale(ctx, organizer, second.ReferralCode, order.ID)
	assert.ErrorIs(t, err, apperr.ErrStaffSaleExists)

	earned, err := h.Staff.GetStaff(ctx, organizer, second.ID)
	require.NoError(t, err)
	assert.Zero(t, earned.TicketsSold)
}

func TestCreateStaff_Validation(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})

	_, err := h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		EventID: &event.ID, Name: "Greedy", CommissionType: staff.CommissionPercentage, CommissionValue: decimal.NewFromInt(101),
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = h.Staff.CreateStaff(ctx, apptest.Organizer(), staff.CreateStaffRequest{
		EventID: &event.ID, Name: "Intruder", CommissionType: staff.CommissionFixed, CommissionValue: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	_, err = h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		EventID: &event.ID, Name: "First", CommissionType: staff.CommissionFixed, CommissionValue: decimal.NewFromInt(1), ReferralCode: "TAKEN1",
	})
	require.NoError(t, err)
	_, err = h.Staff.CreateStaff(ctx, organizer, staff.CreateStaffRequest{
		EventID: &event.ID, Name: "Second", CommissionType: staff.CommissionFixed, CommissionValue: decimal.NewFromInt(1), ReferralCode: "taken1",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}
