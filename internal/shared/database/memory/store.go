// Package memory is an in-process implementation of every repository.
// Transactions are serialised by one mutex and rolled back on error.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"ticketcore/internal/bundles"
	"ticketcore/internal/credits"
	"ticketcore/internal/events"
	"ticketcore/internal/orders"
	"ticketcore/internal/seats"
	"ticketcore/internal/staff"
	"ticketcore/internal/tiers"

	"github.com/google/uuid"
)

type state struct {
	events map[uuid.UUID]events.Event
	tiers  map[uuid.UUID]tiers.TicketTier

	balances     map[uuid.UUID]credits.OrganizerCredits
	creditTxs    map[uuid.UUID]credits.CreditTransaction
	allocations  map[uuid.UUID]credits.CreditAllocation
	charts       map[uuid.UUID]seats.SeatingChart
	reservations map[uuid.UUID]seats.SeatReservation

	bundles map[uuid.UUID]bundles.TicketBundle
	staff   map[uuid.UUID]staff.EventStaff
	sales   map[uuid.UUID]staff.StaffSale

	orders  map[uuid.UUID]orders.Order
	items   map[uuid.UUID]orders.OrderItem
	tickets map[uuid.UUID]orders.Ticket
}

func newState() *state {
	return &state{
		events:       make(map[uuid.UUID]events.Event),
		tiers:        make(map[uuid.UUID]tiers.TicketTier),
		balances:     make(map[uuid.UUID]credits.OrganizerCredits),
		creditTxs:    make(map[uuid.UUID]credits.CreditTransaction),
		allocations:  make(map[uuid.UUID]credits.CreditAllocation),
		charts:       make(map[uuid.UUID]seats.SeatingChart),
		reservations: make(map[uuid.UUID]seats.SeatReservation),
		bundles:      make(map[uuid.UUID]bundles.TicketBundle),
		staff:        make(map[uuid.UUID]staff.EventStaff),
		sales:        make(map[uuid.UUID]staff.StaffSale),
		orders:       make(map[uuid.UUID]orders.Order),
		items:        make(map[uuid.UUID]orders.OrderItem),
		tickets:      make(map[uuid.UUID]orders.Ticket),
	}
}

// clone copies every table. Stored rows are never mutated in place, so
// copying the maps is enough to restore them.
func (s *state) clone() *state {
	return &state{
		events:       maps.Clone(s.events),
		tiers:        maps.Clone(s.tiers),
		balances:     maps.Clone(s.balances),
		creditTxs:    maps.Clone(s.creditTxs),
		allocations:  maps.Clone(s.allocations),
		charts:       maps.Clone(s.charts),
		reservations: maps.Clone(s.reservations),
		bundles:      maps.Clone(s.bundles),
		staff:        maps.Clone(s.staff),
		sales:        maps.Clone(s.sales),
		orders:       maps.Clone(s.orders),
		items:        maps.Clone(s.items),
		tickets:      maps.Clone(s.tickets),
	}
}

// Store holds all tables and implements txn.Manager
type Store struct {
	mu    sync.Mutex
	data  *state
	clock func() time.Time
}

func NewStore() *Store {
	return &Store{data: newState(), clock: time.Now}
}

// SetClock overrides the timestamp source used for created_at and updated_at
func (s *Store) SetClock(clock func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = clock
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, ok := ctx.Value(txKey{}).(*Store)
	return ok && owner == s
}

// WithTx runs fn while holding the store lock. Nested calls join the outer
// transaction. Any error restores the tables to their state before fn.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// do runs a single repository call, taking the lock unless ctx is already in a transaction
func (s *Store) do(ctx context.Context, fn func(st *state, now time.Time) error) error {
	if !s.inTx(ctx) {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data, s.clock())
}

func (s *Store) Events() events.Repository   { return &eventRepo{store: s} }
func (s *Store) Tiers() tiers.Repository     { return &tierRepo{store: s} }
func (s *Store) Credits() credits.Repository { return &creditRepo{store: s} }
func (s *Store) Seats() seats.Repository     { return &seatRepo{store: s} }
func (s *Store) Bundles() bundles.Repository { return &bundleRepo{store: s} }
func (s *Store) Staff() staff.Repository     { return &staffRepo{store: s} }
func (s *Store) Orders() orders.Repository   { return &orderRepo{store: s} }

// sortedValues returns the rows matching keep, ordered by created_at then id
func sortedValues[T any](rows map[uuid.UUID]T, keep func(T) bool, created func(T) time.Time, id func(T) uuid.UUID) []T {
	out := make([]T, 0)
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	slices.SortFunc(out, func(a, b T) int {
		if c := created(a).Compare(created(b)); c != 0 {
			return c
		}
		return cmp.Compare(id(a).String(), id(b).String())
	})
	return out
}

func touch(created, updated *time.Time, now time.Time) {
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}
