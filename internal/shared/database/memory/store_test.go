package memory

import (
	"context"
	"errors"
	"testing"

	"ticketcore/internal/seats"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/staff"
	"ticketcore/internal/tiers"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTx_RollsBackOnError(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	tier := &tiers.TicketTier{EventID: uuid.New(), Name: "GA", Quantity: 10}
	require.NoError(t, store.Tiers().Create(ctx, tier))

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(ctx context.Context) error {
		ok, err := store.Tiers().IncrementSold(ctx, tier.ID, 4)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := store.Tiers().GetByID(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Sold)
}

func TestWithTx_NestedCallsJoin(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	tier := &tiers.TicketTier{EventID: uuid.New(), Name: "GA", Quantity: 10}
	require.NoError(t, store.Tiers().Create(ctx, tier))

	err := store.WithTx(ctx, func(ctx context.Context) error {
		return store.WithTx(ctx, func(ctx context.Context) error {
			_, err := store.Tiers().IncrementSold(ctx, tier.ID, 2)
			return err
		})
	})
	require.NoError(t, err)

	got, err := store.Tiers().GetByID(ctx, tier.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Sold)
}

func TestTierCounters(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	tier := &tiers.TicketTier{EventID: uuid.New(), Name: "GA", Quantity: 3}
	require.NoError(t, store.Tiers().Create(ctx, tier))

	ok, err := store.Tiers().IncrementSold(ctx, tier.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Tiers().IncrementSold(ctx, tier.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Tiers().Delete(ctx, tier.ID))
	_, err = store.Tiers().GetByID(ctx, tier.ID)
	require.NoError(t, err, "a tier with sales must survive delete")

	delta, err := store.Tiers().DecrementSold(ctx, tier.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, delta)
}

func TestCreateReservations_OneReservedRowPerSlot(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	chartID := uuid.New()
	row := func() seats.SeatReservation {
		return seats.SeatReservation{
			ChartID: chartID, SectionID: "A", RowID: "1", SeatID: "1",
			TicketID: uuid.New(), OrderID: uuid.New(), Status: seats.ReservationReserved,
		}
	}

	first := []seats.SeatReservation{row()}
	require.NoError(t, store.Seats().CreateReservations(ctx, first))
	assert.ErrorIs(t, store.Seats().CreateReservations(ctx, []seats.SeatReservation{row()}), apperr.ErrSeatAlreadyReserved)

	moved, err := store.Seats().Transition(ctx, []uuid.UUID{first[0].ID}, seats.ReservationReleased)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	require.NoError(t, store.Seats().CreateReservations(ctx, []seats.SeatReservation{row()}))
}

func TestCharts_ReadsAreDetached(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	chart := &seats.SeatingChart{
		EventID:  uuid.New(),
		Name:     "Hall",
		Sections: []seats.Section{{ID: "A", Name: "A", Rows: []seats.Row{{ID: "1", Seats: []seats.Seat{{ID: "1", Type: seats.SeatTypeStandard}}}}}},
	}
	require.NoError(t, store.Seats().CreateChart(ctx, chart))

	read, err := store.Seats().GetChart(ctx, chart.ID)
	require.NoError(t, err)
	read.Sections[0].Rows[0].Seats[0].Status = seats.SeatStatusReserved

	again, err := store.Seats().GetChart(ctx, chart.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Sections[0].Rows[0].Seats[0].Status)

	dup := &seats.SeatingChart{EventID: chart.EventID, Name: "Other"}
	assert.True(t, apperr.IsKind(store.Seats().CreateChart(ctx, dup), apperr.KindValidation))
}

func TestCreateSale_OneSalePerOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	orderID := uuid.New()

	first := &staff.StaffSale{StaffID: uuid.New(), OrderID: orderID, Kind: staff.SaleKindSale, TicketCount: 1}
	require.NoError(t, store.Staff().CreateSale(ctx, first))

	other := &staff.StaffSale{StaffID: uuid.New(), OrderID: orderID, Kind: staff.SaleKindSale, TicketCount: 1}
	assert.ErrorIs(t, store.Staff().CreateSale(ctx, other), apperr.ErrStaffSaleExists)

	reversal := &staff.StaffSale{StaffID: first.StaffID, OrderID: orderID, Kind: staff.SaleKindReversal, TicketCount: -1}
	require.NoError(t, store.Staff().CreateSale(ctx, reversal))

	has, err := store.Staff().OrderHasSale(ctx, orderID)
	require.NoError(t, err)
	assert.True(t, has)
}
