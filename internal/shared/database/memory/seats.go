package memory

import (
	"context"
	"slices"
	"time"

	"ticketcore/internal/seats"
	"ticketcore/internal/shared/apperr"

	"github.com/google/uuid"
)

// seatRepo keeps charts and reservations; reserved counts are adjusted explicitly
type seatRepo struct {
	store *Store
}

// copyChart detaches the section tree so callers can annotate seat status freely
func copyChart(chart seats.SeatingChart) seats.SeatingChart {
	sections := make([]seats.Section, len(chart.Sections))
	for i, section := range chart.Sections {
		rows := make([]seats.Row, len(section.Rows))
		for j, row := range section.Rows {
			row.Seats = slices.Clone(row.Seats)
			rows[j] = row
		}
		section.Rows = rows
		sections[i] = section
	}
	chart.Sections = sections
	return chart
}

func (r *seatRepo) CreateChart(ctx context.Context, chart *seats.SeatingChart) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		if chart.ID == uuid.Nil {
			chart.ID = uuid.New()
		}
		for _, existing := range st.charts {
			if existing.EventID == chart.EventID {
				return apperr.InvalidInput("event %s already has a seating chart", chart.EventID)
			}
		}
		touch(&chart.CreatedAt, &chart.UpdatedAt, now)
		st.charts[chart.ID] = copyChart(*chart)
		return nil
	})
}

func (r *seatRepo) GetChart(ctx context.Context, id uuid.UUID) (*seats.SeatingChart, error) {
	return r.findChart(ctx, id, func(c seats.SeatingChart) bool { return c.ID == id })
}

func (r *seatRepo) GetChartForUpdate(ctx context.Context, id uuid.UUID) (*seats.SeatingChart, error) {
	return r.GetChart(ctx, id)
}

func (r *seatRepo) GetChartByEvent(ctx context.Context, eventID uuid.UUID) (*seats.SeatingChart, error) {
	return r.findChart(ctx, eventID, func(c seats.SeatingChart) bool { return c.EventID == eventID })
}

func (r *seatRepo) findChart(ctx context.Context, key uuid.UUID, match func(seats.SeatingChart) bool) (*seats.SeatingChart, error) {
	var out *seats.SeatingChart
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		for _, chart := range st.charts {
			if match(chart) {
				c := copyChart(chart)
				out = &c
				return nil
			}
		}
		return apperr.NotFound("seating chart", key)
	})
	return out, err
}

func (r *seatRepo) DeleteChart(ctx context.Context, id uuid.UUID) error {
	return r.store.do(ctx, func(st *state, _ time.Time) error {
		delete(st.charts, id)
		return nil
	})
}

func (r *seatRepo) AdjustReservedSeats(ctx context.Context, chartID uuid.UUID, delta int) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		chart, ok := st.charts[chartID]
		if !ok {
			return nil
		}
		chart.ReservedSeats = max(chart.ReservedSeats+delta, 0)
		chart.UpdatedAt = now
		st.charts[chartID] = chart
		return nil
	})
}

func (r *seatRepo) listReserved(ctx context.Context, keep func(seats.SeatReservation) bool) ([]seats.SeatReservation, error) {
	var out []seats.SeatReservation
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.reservations,
			func(res seats.SeatReservation) bool { return res.Status == seats.ReservationReserved && keep(res) },
			func(res seats.SeatReservation) time.Time { return res.CreatedAt },
			func(res seats.SeatReservation) uuid.UUID { return res.ID })
		return nil
	})
	return out, err
}

func (r *seatRepo) FindReserved(ctx context.Context, chartID uuid.UUID, refs []seats.SeatRef) ([]seats.SeatReservation, error) {
	if len(refs) == 0 {
		return []seats.SeatReservation{}, nil
	}
	wanted := make(map[seats.SeatRef]bool, len(refs))
	for _, ref := range refs {
		wanted[ref] = true
	}
	return r.listReserved(ctx, func(res seats.SeatReservation) bool {
		return res.ChartID == chartID && wanted[res.Ref()]
	})
}

func (r *seatRepo) ListReservedByChart(ctx context.Context, chartID uuid.UUID) ([]seats.SeatReservation, error) {
	return r.listReserved(ctx, func(res seats.SeatReservation) bool { return res.ChartID == chartID })
}

func (r *seatRepo) ListReservedByTicket(ctx context.Context, ticketID uuid.UUID) ([]seats.SeatReservation, error) {
	return r.listReserved(ctx, func(res seats.SeatReservation) bool { return res.TicketID == ticketID })
}

func (r *seatRepo) ListReservedByOrder(ctx context.Context, orderID uuid.UUID) ([]seats.SeatReservation, error) {
	return r.listReserved(ctx, func(res seats.SeatReservation) bool { return res.OrderID == orderID })
}

func (r *seatRepo) CountReserved(ctx context.Context, chartID uuid.UUID) (int64, error) {
	rows, err := r.ListReservedByChart(ctx, chartID)
	return int64(len(rows)), err
}

type slotKey struct {
	chartID uuid.UUID
	ref     seats.SeatRef
}

// CreateReservations enforces one RESERVED row per slot, mirroring the partial unique index
func (r *seatRepo) CreateReservations(ctx context.Context, reservations []seats.SeatReservation) error {
	if len(reservations) == 0 {
		return nil
	}
	return r.store.do(ctx, func(st *state, now time.Time) error {
		// Slots currently held
		taken := make(map[slotKey]bool)
		for _, res := range st.reservations {
			if res.Status == seats.ReservationReserved {
				taken[slotKey{res.ChartID, res.Ref()}] = true
			}
		}
		for _, res := range reservations {
			if res.Status != seats.ReservationReserved {
				continue
			}
			key := slotKey{res.ChartID, res.Ref()}
			if taken[key] {
				return apperr.ErrSeatAlreadyReserved
			}
			taken[key] = true
		}
		for i := range reservations {
			res := &reservations[i]
			if res.ID == uuid.Nil {
				res.ID = uuid.New()
			}
			touch(&res.CreatedAt, &res.UpdatedAt, now)
			st.reservations[res.ID] = *res
		}
		return nil
	})
}

// Transition moves RESERVED rows only; rows already released or cancelled are skipped
func (r *seatRepo) Transition(ctx context.Context, ids []uuid.UUID, status seats.ReservationStatus) (int, error) {
	moved := 0
	err := r.store.do(ctx, func(st *state, now time.Time) error {
		for _, id := range ids {
			res, ok := st.reservations[id]
			if !ok || res.Status != seats.ReservationReserved {
				continue
			}
			res.Status = status
			res.UpdatedAt = now
			st.reservations[id] = res
			moved++
		}
		return nil
	})
	return moved, err
}
