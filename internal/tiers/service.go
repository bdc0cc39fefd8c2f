package tiers

import (
	"context"
	"fmt"
	"time"

	"ticketcore/internal/credits"
	"ticketcore/internal/events"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/constants"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/txn"
	"ticketcore/pkg/cache"
	"ticketcore/pkg/logger"

	"github.com/google/uuid"
)

// EventLookup resolves the event a tier belongs to
type EventLookup interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// CreditLedger is the slice of the credit service tiers draw on
type CreditLedger interface {
	Allocate(ctx context.Context, req credits.AllocationRequest) (*credits.OrganizerCredits, error)
	Refund(ctx context.Context, req credits.AllocationRequest) (*credits.OrganizerCredits, error)
}

type Service interface {
	// Organizer operations
	CreateTier(ctx context.Context, actor identity.Actor, req CreateTierRequest) (*TicketTier, error)
	// Reads
	GetTier(ctx context.Context, id uuid.UUID) (*TierView, error)
	ListTiers(ctx context.Context, eventID uuid.UUID) ([]TierView, error)
	GetTiers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]TicketTier, error)
	UpdateTier(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateTierRequest) (*TicketTier, error)
	ResizeTier(ctx context.Context, actor identity.Actor, id uuid.UUID, quantity int) (*TicketTier, error)
	DeleteTier(ctx context.Context, actor identity.Actor, id uuid.UUID) error

	// IncrementSold and DecrementSold are the settlement-only counter mutations.
	IncrementSold(ctx context.Context, tierID uuid.UUID, n int) error
	DecrementSold(ctx context.Context, tierID uuid.UUID, n int) error

	// InvalidateAvailability drops cached tier and bundle listings for the events
	InvalidateAvailability(ctx context.Context, eventIDs ...uuid.UUID)
}

type service struct {
	repo    Repository
	txm     txn.Manager
	events  EventLookup
	credits CreditLedger
	cache   cache.Service
	log     *logger.Logger
}

// NewService wires the tier ledger. cacheSvc may be nil.
func NewService(repo Repository, txm txn.Manager, eventLookup EventLookup, creditLedger CreditLedger, cacheSvc cache.Service, log *logger.Logger) Service {
	return &service{
		repo:    repo,
		txm:     txm,
		events:  eventLookup,
		credits: creditLedger,
		cache:   cacheSvc,
		log:     log,
	}
}

func validateWindow(start, end *time.Time) error {
	if start != nil && end != nil && !end.After(*start) {
		return apperr.InvalidInput("sale_end must be after sale_start")
	}
	return nil
}

// ownedEvent loads the event and checks the actor organizes it
func (s *service) ownedEvent(ctx context.Context, actor identity.Actor, eventID uuid.UUID) (*events.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(event.OrganizerID) {
		return nil, apperr.Forbidden("only the event organizer can manage its tiers")
	}
	return event, nil
}

// CreateTier creates a tier and, for credit-funded events, allocates one credit per ticket
func (s *service) CreateTier(ctx context.Context, actor identity.Actor, req CreateTierRequest) (*TicketTier, error) {
	if err := validateWindow(req.SaleStart, req.SaleEnd); err != nil {
		return nil, err
	}

	tier := &TicketTier{
		ID:          uuid.New(),
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Quantity:    req.Quantity,
		SaleStart:   req.SaleStart,
		SaleEnd:     req.SaleEnd,
		IsActive:    true,
	}

	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.ownedEvent(ctx, actor, req.EventID)
		if err != nil {
			return err
		}
		if event.IsFree && tier.PriceCents != 0 {
			return apperr.InvalidInput("tiers of a free event must have a zero price")
		}
		// Create the tier
		if err := s.repo.Create(ctx, tier); err != nil {
			return fmt.Errorf("failed to create tier: %w", err)
		}
		// Allocate credits in the same transaction; a short balance rolls the tier back
		if event.UsesCredits() {
			_, err = s.credits.Allocate(ctx, credits.AllocationRequest{
				OrganizerID: event.OrganizerID,
				EventID:     event.ID,
				TierID:      &tier.ID,
				Quantity:    tier.Quantity,
			})
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateAvailability(ctx, tier.EventID)
	s.log.InfoContext(ctx, "Tier Created", "tier_id", tier.ID.String(), "event_id", tier.EventID.String(), "quantity", tier.Quantity)
	return tier, nil
}

func (s *service) GetTier(ctx context.Context, id uuid.UUID) (*TierView, error) {
	tier, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewTierView(*tier)
	return &view, nil
}

func (s *service) ListTiers(ctx context.Context, eventID uuid.UUID) ([]TierView, error) {
	// Cache-aside over the event listing
	fetch := func() (interface{}, error) {
		tiers, err := s.repo.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to list tiers: %w", err)
		}
		views := make([]TierView, 0, len(tiers))
		for _, t := range tiers {
			views = append(views, NewTierView(t))
		}
		return views, nil
	}

	if s.cache == nil {
		views, err := fetch()
		if err != nil {
			return nil, err
		}
		return views.([]TierView), nil
	}

	var views []TierView
	err := s.cache.GetOrSet(ctx, constants.BuildTiersByEventKey(eventID.String()), constants.TTL_TIERS_BY_EVENT, fetch, &views)
	return views, err
}

func (s *service) GetTiers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]TicketTier, error) {
	tiers, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiers: %w", err)
	}
	byID := make(map[uuid.UUID]TicketTier, len(tiers))
	for _, t := range tiers {
		byID[t.ID] = t
	}
	return byID, nil
}

// UpdateTier applies a partial update. A quantity change goes through resize.
func (s *service) UpdateTier(ctx context.Context, actor identity.Actor, id uuid.UUID, req UpdateTierRequest) (*TicketTier, error) {
	var tier *TicketTier
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		tier, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		event, err := s.ownedEvent(ctx, actor, tier.EventID)
		if err != nil {
			return err
		}

		// Apply changes
		if req.Name != nil {
			tier.Name = *req.Name
		}
		if req.Description != nil {
			tier.Description = *req.Description
		}
		if req.PriceCents != nil {
			if event.IsFree && *req.PriceCents != 0 {
				return apperr.InvalidInput("tiers of a free event must have a zero price")
			}
			tier.PriceCents = *req.PriceCents
		}
		if req.SaleStart != nil {
			tier.SaleStart = req.SaleStart
		}
		if req.SaleEnd != nil {
			tier.SaleEnd = req.SaleEnd
		}
		if err := validateWindow(tier.SaleStart, tier.SaleEnd); err != nil {
			return err
		}
		if req.IsActive != nil {
			tier.IsActive = *req.IsActive
		}
		if req.Quantity != nil {
			if err := s.resize(ctx, tier, event, *req.Quantity); err != nil {
				return err
			}
		}
		return s.repo.Update(ctx, tier)
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateAvailability(ctx, tier.EventID)
	return tier, nil
}

// ResizeTier sets a tier's capacity, moving credits by the difference
func (s *service) ResizeTier(ctx context.Context, actor identity.Actor, id uuid.UUID, quantity int) (*TicketTier, error) {
	var tier *TicketTier
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		// Lock the tier, then verify ownership
		tier, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		event, err := s.ownedEvent(ctx, actor, tier.EventID)
		if err != nil {
			return err
		}
		if err := s.resize(ctx, tier, event, quantity); err != nil {
			return err
		}
		return s.repo.Update(ctx, tier)
	})
	if err != nil {
		return nil, err
	}

	s.InvalidateAvailability(ctx, tier.EventID)
	return tier, nil
}

// resize reconciles a capacity change against the organizer's credits. tier must be row-locked.
func (s *service) resize(ctx context.Context, tier *TicketTier, event *events.Event, quantity int) error {
	if quantity < 0 {
		return apperr.InvalidInput("quantity must not be negative")
	}
	if quantity < tier.Sold {
		return apperr.State(apperr.CodeTierQuantityBelowSold,
			"tier %q has %d sold tickets; quantity cannot drop to %d", tier.Name, tier.Sold, quantity).
			WithDetail("tier", tier.Name).
			WithDetail("sold", tier.Sold)
	}

	// Credits follow the capacity delta
	delta := quantity - tier.Quantity
	if delta != 0 && event.UsesCredits() {
		req := credits.AllocationRequest{OrganizerID: event.OrganizerID, EventID: event.ID, TierID: &tier.ID}
		var err error
		if delta > 0 {
			req.Quantity = delta
			_, err = s.credits.Allocate(ctx, req)
		} else {
			req.Quantity = -delta
			_, err = s.credits.Refund(ctx, req)
		}
		if err != nil {
			return err
		}
	}

	tier.Quantity = quantity
	return nil
}

func (s *service) DeleteTier(ctx context.Context, actor identity.Actor, id uuid.UUID) error {
	var eventID uuid.UUID
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		tier, err := s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		eventID = tier.EventID

		// Verify ownership
		event, err := s.ownedEvent(ctx, actor, tier.EventID)
		if err != nil {
			return err
		}
		// Sold tiers stay
		if tier.Sold > 0 {
			return apperr.State(apperr.CodeTierHasSales, "tier %q has %d sold tickets", tier.Name, tier.Sold).
				WithDetail("tier", tier.Name).
				WithDetail("sold", tier.Sold)
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete tier: %w", err)
		}
		// Return the tier's credits
		if event.UsesCredits() && tier.Quantity > 0 {
			_, err = s.credits.Refund(ctx, credits.AllocationRequest{
				OrganizerID: event.OrganizerID,
				EventID:     event.ID,
				TierID:      &tier.ID,
				Quantity:    tier.Quantity,
			})
		}
		return err
	})
	if err != nil {
		return err
	}

	s.InvalidateAvailability(ctx, eventID)
	return nil
}

func (s *service) IncrementSold(ctx context.Context, tierID uuid.UUID, n int) error {
	if n <= 0 {
		return apperr.InvalidInput("increment must be positive")
	}
	// Conditional update: only applies while sold + n <= quantity
	ok, err := s.repo.IncrementSold(ctx, tierID, n)
	if err != nil {
		return fmt.Errorf("failed to increment tier sold: %w", err)
	}
	if ok {
		return nil
	}

	// Rejected: reload for an accurate message
	tier, err := s.repo.GetByID(ctx, tierID)
	if err != nil {
		return err
	}
	available := tier.Available()
	s.log.LogCapacityRejected(ctx, "tier", tierID.String(), n, available)
	return apperr.CapacityExceeded(apperr.CodeTierSoldOutOfBounds,
		"tier %q has %d tickets left, %d requested", tier.Name, available, n).
		WithDetail("tier", tier.Name).
		WithDetail("available", available)
}

func (s *service) DecrementSold(ctx context.Context, tierID uuid.UUID, n int) error {
	if n <= 0 {
		return apperr.InvalidInput("decrement must be positive")
	}
	delta, err := s.repo.DecrementSold(ctx, tierID, n)
	if err != nil {
		return fmt.Errorf("failed to decrement tier sold: %w", err)
	}
	if delta < n {
		s.log.WarnContext(ctx, "Tier sold decrement clamped at zero",
			"tier_id", tierID.String(),
			"requested", n,
			"applied", delta,
		)
	}
	return nil
}

func (s *service) InvalidateAvailability(ctx context.Context, eventIDs ...uuid.UUID) {
	if s.cache == nil || len(eventIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(eventIDs)*2)
	for _, id := range eventIDs {
		keys = append(keys, constants.BuildTiersByEventKey(id.String()), constants.BuildBundlesByEventKey(id.String()))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WarnContext(ctx, "Availability cache invalidation failed", "error", err.Error())
	}
}
