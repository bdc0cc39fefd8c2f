package seats

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"ticketcore/internal/events"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/txn"
	"ticketcore/pkg/logger"
	"ticketcore/pkg/metrics"

	"github.com/google/uuid"
)

type EventLookup interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

type Service interface {
	CreateChart(ctx context.Context, actor identity.Actor, req CreateChartRequest) (*SeatingChart, error)
	GetSeatMap(ctx context.Context, chartID uuid.UUID) (*SeatMap, error)
	GetChartByEvent(ctx context.Context, eventID uuid.UUID) (*SeatingChart, error)
	DeleteChart(ctx context.Context, actor identity.Actor, chartID uuid.UUID) error

	// CheckSeatsFree is the non-binding pre-flight used at order creation.
	CheckSeatsFree(ctx context.Context, chartID uuid.UUID, refs []SeatRef) error
	// ReserveSeats binds seats to a ticket. Check and insert run under the chart row lock.
	ReserveSeats(ctx context.Context, chartID, ticketID, orderID uuid.UUID, refs []SeatRef) error
	// ReleaseSeats returns a ticket's seats to the pool. Releasing twice is a no-op.
	ReleaseSeats(ctx context.Context, ticketID uuid.UUID) (int, error)
	// CancelOrderSeats cancels every seat still held by a refunded order.
	CancelOrderSeats(ctx context.Context, orderID uuid.UUID) (int, error)
}

type service struct {
	repo   Repository
	txm    txn.Manager
	events EventLookup
	log    *logger.Logger
}

func NewService(repo Repository, txm txn.Manager, eventLookup EventLookup, log *logger.Logger) Service {
	return &service{repo: repo, txm: txm, events: eventLookup, log: log}
}

// CreateChart stores the section/row/seat tree for an event
func (s *service) CreateChart(ctx context.Context, actor identity.Actor, req CreateChartRequest) (*SeatingChart, error) {
	event, err := s.events.GetEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(event.OrganizerID) {
		return nil, apperr.Forbidden("only the event organizer can create its seating chart")
	}

	chart := &SeatingChart{
		ID:       uuid.New(),
		EventID:  req.EventID,
		Name:     req.Name,
		Sections: req.Sections,
	}
	// Validate the tree and count sellable seats
	if err := validateTree(chart); err != nil {
		return nil, err
	}
	chart.TotalSeats = chart.countSeats()

	if err := s.repo.CreateChart(ctx, chart); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "Seating Chart Created", "chart_id", chart.ID.String(), "total_seats", chart.TotalSeats)
	return chart, nil
}

// validateTree rejects duplicate ids at every level and unknown seat types.
func validateTree(chart *SeatingChart) error {
	sections := make(map[string]struct{}, len(chart.Sections))
	for si := range chart.Sections {
		section := &chart.Sections[si]
		if _, dup := sections[section.ID]; dup {
			return apperr.InvalidInput("duplicate section id %q", section.ID)
		}
		sections[section.ID] = struct{}{}

		rows := make(map[string]struct{}, len(section.Rows))
		for ri := range section.Rows {
			row := &section.Rows[ri]
			if _, dup := rows[row.ID]; dup {
				return apperr.InvalidInput("duplicate row id %q in section %q", row.ID, section.ID)
			}
			rows[row.ID] = struct{}{}

			seats := make(map[string]struct{}, len(row.Seats))
			for i := range row.Seats {
				seat := &row.Seats[i]
				if _, dup := seats[seat.ID]; dup {
					return apperr.InvalidInput("duplicate seat id %q in row %q", seat.ID, row.ID)
				}
				seats[seat.ID] = struct{}{}
				if !seat.Type.IsValid() {
					return apperr.InvalidInput("unknown seat type %q", seat.Type)
				}
				seat.Status = SeatStatusAvailable
				if seat.Type == SeatTypeBlocked {
					seat.Status = SeatStatusBlocked
				}
			}
		}
	}
	return nil
}

// GetSeatMap overlays live reservations on the chart
func (s *service) GetSeatMap(ctx context.Context, chartID uuid.UUID) (*SeatMap, error) {
	chart, err := s.repo.GetChart(ctx, chartID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.repo.ListReservedByChart(ctx, chartID)
	if err != nil {
		return nil, fmt.Errorf("failed to load seat reservations: %w", err)
	}

	taken := make(map[SeatRef]struct{}, len(reserved))
	for _, r := range reserved {
		taken[r.Ref()] = struct{}{}
	}

	// Blocked wins over reserved
	available := 0
	for si := range chart.Sections {
		section := &chart.Sections[si]
		for ri := range section.Rows {
			row := &section.Rows[ri]
			for i := range row.Seats {
				seat := &row.Seats[i]
				ref := SeatRef{SectionID: section.ID, RowID: row.ID, SeatID: seat.ID}
				switch _, isTaken := taken[ref]; {
				case seat.Type == SeatTypeBlocked:
					seat.Status = SeatStatusBlocked
				case isTaken:
					seat.Status = SeatStatusReserved
				default:
					seat.Status = SeatStatusAvailable
					available++
				}
			}
		}
	}

	return &SeatMap{SeatingChart: *chart, AvailableSeats: available}, nil
}

func (s *service) GetChartByEvent(ctx context.Context, eventID uuid.UUID) (*SeatingChart, error) {
	return s.repo.GetChartByEvent(ctx, eventID)
}

func (s *service) DeleteChart(ctx context.Context, actor identity.Actor, chartID uuid.UUID) error {
	return s.txm.WithTx(ctx, func(ctx context.Context) error {
		chart, err := s.repo.GetChartForUpdate(ctx, chartID)
		if err != nil {
			return err
		}
		event, err := s.events.GetEvent(ctx, chart.EventID)
		if err != nil {
			return err
		}
		if !actor.Owns(event.OrganizerID) {
			return apperr.Forbidden("only the event organizer can delete its seating chart")
		}

		// Charts with live reservations stay
		count, err := s.repo.CountReserved(ctx, chartID)
		if err != nil {
			return fmt.Errorf("failed to count seat reservations: %w", err)
		}
		if count > 0 {
			return apperr.State(apperr.CodeChartHasReservations, "seating chart has %d reserved seats", count).
				WithDetail("reserved", count)
		}
		return s.repo.DeleteChart(ctx, chartID)
	})
}

// checkRefs validates that refs are distinct, exist in the chart and are sellable.
func checkRefs(chart *SeatingChart, refs []SeatRef) error {
	seen := make(map[SeatRef]struct{}, len(refs))
	for _, ref := range refs {
		if _, dup := seen[ref]; dup {
			return apperr.InvalidInput("seat %s selected more than once", ref)
		}
		seen[ref] = struct{}{}

		seat, ok := chart.Find(ref)
		if !ok {
			return apperr.Validation(apperr.CodeSeatNotFound, "seat %s does not exist", ref).
				WithDetail("seat", ref.String())
		}
		if seat.Type == SeatTypeBlocked {
			return apperr.Validation(apperr.CodeSeatBlocked, "seat %s is not sellable", ref).
				WithDetail("seat", ref.String())
		}
	}
	return nil
}

func seatTaken(ref SeatRef) error {
	return apperr.Conflict(apperr.CodeSeatAlreadyReserved, "seat %s is already reserved", ref).
		WithDetail("seat", ref.String())
}

// CheckSeatsFree is the non-binding pre-check used at order creation
func (s *service) CheckSeatsFree(ctx context.Context, chartID uuid.UUID, refs []SeatRef) error {
	chart, err := s.repo.GetChart(ctx, chartID)
	if err != nil {
		return err
	}
	if err := checkRefs(chart, refs); err != nil {
		return err
	}
	existing, err := s.repo.FindReserved(ctx, chartID, refs)
	if err != nil {
		return fmt.Errorf("failed to check seat reservations: %w", err)
	}
	if taken := firstTaken(refs, existing); taken != nil {
		return seatTaken(*taken)
	}
	return nil
}

// firstTaken returns the earliest requested ref that has a RESERVED row.
func firstTaken(refs []SeatRef, existing []SeatReservation) *SeatRef {
	if len(existing) == 0 {
		return nil
	}
	held := make(map[SeatRef]struct{}, len(existing))
	for _, r := range existing {
		held[r.Ref()] = struct{}{}
	}
	for _, ref := range refs {
		if _, ok := held[ref]; ok {
			return &ref
		}
	}
	return nil
}

func (s *service) ReserveSeats(ctx context.Context, chartID, ticketID, orderID uuid.UUID, refs []SeatRef) error {
	if len(refs) == 0 {
		return nil
	}
	return s.txm.WithTx(ctx, func(ctx context.Context) error {
		// Lock the chart so concurrent reservations queue up
		chart, err := s.repo.GetChartForUpdate(ctx, chartID)
		if err != nil {
			return err
		}
		if err := checkRefs(chart, refs); err != nil {
			return err
		}

		// Check existing reservations
		existing, err := s.repo.FindReserved(ctx, chartID, refs)
		if err != nil {
			return fmt.Errorf("failed to check seat reservations: %w", err)
		}
		if taken := firstTaken(refs, existing); taken != nil {
			s.conflict(ctx, chartID, *taken, orderID)
			return seatTaken(*taken)
		}

		rows := make([]SeatReservation, 0, len(refs))
		for _, ref := range refs {
			rows = append(rows, SeatReservation{
				ID:        uuid.New(),
				ChartID:   chartID,
				SectionID: ref.SectionID,
				RowID:     ref.RowID,
				SeatID:    ref.SeatID,
				TicketID:  ticketID,
				OrderID:   orderID,
				Status:    ReservationReserved,
			})
		}
		// The unique index still guards against a race the lock missed
		if err := s.repo.CreateReservations(ctx, rows); err != nil {
			if errors.Is(err, apperr.ErrSeatAlreadyReserved) {
				s.conflict(ctx, chartID, refs[0], orderID)
				return seatTaken(refs[0])
			}
			return fmt.Errorf("failed to insert seat reservations: %w", err)
		}
		return s.repo.AdjustReservedSeats(ctx, chartID, len(rows))
	})
}

func (s *service) conflict(ctx context.Context, chartID uuid.UUID, ref SeatRef, orderID uuid.UUID) {
	metrics.SeatConflicts.Inc()
	s.log.LogSeatConflict(ctx, chartID.String(), ref.String(), orderID.String())
}

func (s *service) ReleaseSeats(ctx context.Context, ticketID uuid.UUID) (int, error) {
	var released int
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		rows, err := s.repo.ListReservedByTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("failed to load ticket seats: %w", err)
		}
		released, err = s.transition(ctx, rows, ReservationReleased)
		return err
	})
	return released, err
}

func (s *service) CancelOrderSeats(ctx context.Context, orderID uuid.UUID) (int, error) {
	var cancelled int
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		rows, err := s.repo.ListReservedByOrder(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to load order seats: %w", err)
		}
		cancelled, err = s.transition(ctx, rows, ReservationCancelled)
		return err
	})
	return cancelled, err
}

// transition moves rows out of RESERVED chart by chart, in chart id order,
// and lowers each chart's counter by the rows that actually moved.
func (s *service) transition(ctx context.Context, rows []SeatReservation, status ReservationStatus) (int, error) {
	byChart := make(map[uuid.UUID][]uuid.UUID)
	for _, r := range rows {
		byChart[r.ChartID] = append(byChart[r.ChartID], r.ID)
	}
	chartIDs := make([]uuid.UUID, 0, len(byChart))
	for id := range byChart {
		chartIDs = append(chartIDs, id)
	}
	sort.Slice(chartIDs, func(i, j int) bool { return chartIDs[i].String() < chartIDs[j].String() })

	total := 0
	for _, chartID := range chartIDs {
		if _, err := s.repo.GetChartForUpdate(ctx, chartID); err != nil {
			return 0, err
		}
		moved, err := s.repo.Transition(ctx, byChart[chartID], status)
		if err != nil {
			return 0, fmt.Errorf("failed to update seat reservations: %w", err)
		}
		if moved > 0 {
			if err := s.repo.AdjustReservedSeats(ctx, chartID, -moved); err != nil {
				return 0, fmt.Errorf("failed to update reserved seat count: %w", err)
			}
		}
		total += moved
	}
	return total, nil
}
