package seats_test

import (
	"context"
	"sync"
	"testing"

	"ticketcore/internal/app/apptest"
	"ticketcore/internal/events"
	"ticketcore/internal/seats"
	"ticketcore/internal/shared/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveSeats_ConcurrentClaimsHaveOneWinner(t *testing.T) {
	h := apptest.New(t)
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})
	chart := h.Chart(t, organizer, event.ID, map[string][]string{"1": {"1", "2", "3"}})
	seat := []seats.SeatRef{apptest.Seat("1", "1")}

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := range contenders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = h.Seats.ReserveSeats(context.Background(), chart.ID, uuid.New(), uuid.New(), seat)
		}()
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrSeatAlreadyReserved)
	}
	assert.Equal(t, 1, winners)

	seatMap, err := h.Seats.GetSeatMap(context.Background(), chart.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, seatMap.AvailableSeats)
	assert.Equal(t, 1, seatMap.ReservedSeats)
}

func TestReleaseSeats_IsIdempotent(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})
	chart := h.Chart(t, organizer, event.ID, map[string][]string{"1": {"1", "2"}})
	ticketID := uuid.New()

	require.NoError(t, h.Seats.ReserveSeats(ctx, chart.ID, ticketID, uuid.New(), []seats.SeatRef{apptest.Seat("1", "1")}))

	assert.ErrorIs(t, h.Seats.DeleteChart(ctx, organizer, chart.ID), apperr.ErrChartHasReservations)

	released, err := h.Seats.ReleaseSeats(ctx, ticketID)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	released, err = h.Seats.ReleaseSeats(ctx, ticketID)
	require.NoError(t, err)
	assert.Zero(t, released)

	seatMap, err := h.Seats.GetSeatMap(ctx, chart.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, seatMap.ReservedSeats)

	require.NoError(t, h.Seats.ReserveSeats(ctx, chart.ID, uuid.New(), uuid.New(), []seats.SeatRef{apptest.Seat("1", "1")}),
		"a released seat can be sold again")
}

func TestCancelOrderSeats(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})
	chart := h.Chart(t, organizer, event.ID, map[string][]string{"1": {"1", "2"}})
	orderID := uuid.New()

	require.NoError(t, h.Seats.ReserveSeats(ctx, chart.ID, uuid.New(), orderID, []seats.SeatRef{apptest.Seat("1", "1")}))
	require.NoError(t, h.Seats.ReserveSeats(ctx, chart.ID, uuid.New(), orderID, []seats.SeatRef{apptest.Seat("1", "2")}))

	cancelled, err := h.Seats.CancelOrderSeats(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, 2, cancelled)

	require.NoError(t, h.Seats.DeleteChart(ctx, organizer, chart.ID))
	_, err = h.Seats.GetChartByEvent(ctx, event.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCharts_Validation(t *testing.T) {
	h := apptest.New(t)
	ctx := context.Background()
	organizer := apptest.Organizer()
	event := h.Event(t, organizer, events.CreateEventRequest{})

	chart, err := h.Seats.CreateChart(ctx, organizer, seats.CreateChartRequest{
		EventID: event.ID,
		Name:    "Hall",
		Sections: []seats.Section{{
			ID:   "A",
			Name: "Stalls",
			Rows: []seats.Row{{ID: "1", Seats: []seats.Seat{
				{ID: "1", Type: seats.SeatTypeStandard},
				{ID: "2", Type: seats.SeatTypeBlocked},
			}}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, chart.TotalSeats)

	err = h.Seats.ReserveSeats(ctx, chart.ID, uuid.New(), uuid.New(), []seats.SeatRef{apptest.Seat("1", "2")})
	assert.ErrorIs(t, err, apperr.ErrSeatBlocked)

	err = h.Seats.CheckSeatsFree(ctx, chart.ID, []seats.SeatRef{apptest.Seat("1", "1"), apptest.Seat("1", "1")})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = h.Seats.CreateChart(ctx, organizer, seats.CreateChartRequest{
		EventID:  event.ID,
		Name:     "Second",
		Sections: []seats.Section{{ID: "B", Name: "Balcony", Rows: []seats.Row{{ID: "1", Seats: []seats.Seat{{ID: "1", Type: seats.SeatTypeStandard}}}}}},
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = h.Seats.CreateChart(ctx, apptest.Organizer(), seats.CreateChartRequest{EventID: event.ID, Name: "Other"})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}
