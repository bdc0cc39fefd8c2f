package bundles

import (
	"context"
	"fmt"
	"time"

	"ticketcore/internal/events"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/constants"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/tiers"
	"ticketcore/pkg/cache"
	"ticketcore/pkg/logger"

	"github.com/google/uuid"
)

type EventLookup interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// TierReader loads the tiers a bundle draws from
type TierReader interface {
	GetTiers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]tiers.TicketTier, error)
}

type Service interface {
	CreateBundle(ctx context.Context, actor identity.Actor, req CreateBundleRequest) (*TicketBundle, error)
	GetBundle(ctx context.Context, id uuid.UUID) (*BundleView, error)
	ListBundles(ctx context.Context, eventID uuid.UUID) ([]BundleView, error)
	IsBundleAvailable(ctx context.Context, id uuid.UUID, qty int) (*Availability, error)

	// IncrementSold and DecrementSold move the bundle's own counter during settlement.
	IncrementSold(ctx context.Context, id uuid.UUID, n int) error
	DecrementSold(ctx context.Context, id uuid.UUID, n int) error
}

type service struct {
	repo   Repository
	events EventLookup
	tiers  TierReader
	cache  cache.Service
	log    *logger.Logger
	now    func() time.Time
}

// NewService wires the bundle calculator. cacheSvc may be nil.
func NewService(repo Repository, eventLookup EventLookup, tierReader TierReader, cacheSvc cache.Service, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		events: eventLookup,
		tiers:  tierReader,
		cache:  cacheSvc,
		log:    log,
		now:    time.Now,
	}
}

// CreateBundle validates the bundle shape and that every included tier belongs to one of
// the actor's bundled events
func (s *service) CreateBundle(ctx context.Context, actor identity.Actor, req CreateBundleRequest) (*TicketBundle, error) {
	bundle := &TicketBundle{
		ID:            uuid.New(),
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		IncludedTiers: req.IncludedTiers,
		PriceCents:    req.PriceCents,
		TotalQuantity: req.TotalQuantity,
		SaleStart:     req.SaleStart,
		SaleEnd:       req.SaleEnd,
		IsActive:      true,
	}

	// Event shape depends on the bundle type
	switch req.Type {
	case BundleTypeSingleEvent:
		if req.EventID == nil || len(req.EventIDs) > 0 {
			return nil, apperr.InvalidInput("a single-event bundle needs exactly event_id")
		}
		bundle.EventID = req.EventID
	case BundleTypeMultiEvent:
		if req.EventID != nil || len(req.EventIDs) < 2 {
			return nil, apperr.InvalidInput("a multi-event bundle needs at least two event_ids")
		}
		bundle.EventIDs = req.EventIDs
	default:
		return nil, apperr.InvalidInput("unknown bundle type %q", req.Type)
	}
	if req.SaleStart != nil && req.SaleEnd != nil && !req.SaleEnd.After(*req.SaleStart) {
		return nil, apperr.InvalidInput("sale_end must be after sale_start")
	}

	// Verify ownership of each event
	eventSet := make(map[uuid.UUID]struct{})
	for _, eventID := range bundle.Events() {
		if _, dup := eventSet[eventID]; dup {
			return nil, apperr.InvalidInput("event %s listed twice", eventID)
		}
		event, err := s.events.GetEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if !actor.Owns(event.OrganizerID) {
			return nil, apperr.Forbidden("bundles can only include your own events")
		}
		if bundle.OrganizerID != uuid.Nil && bundle.OrganizerID != event.OrganizerID {
			return nil, apperr.InvalidInput("bundled events must share one organizer")
		}
		bundle.OrganizerID = event.OrganizerID
		eventSet[eventID] = struct{}{}
	}

	// Check included tiers
	stock, err := s.tiers.GetTiers(ctx, bundle.TierIDs())
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(bundle.IncludedTiers))
	for _, inc := range bundle.IncludedTiers {
		if _, dup := seen[inc.TierID]; dup {
			return nil, apperr.InvalidInput("tier %s included twice", inc.TierID)
		}
		seen[inc.TierID] = struct{}{}
		tier, ok := stock[inc.TierID]
		if !ok {
			return nil, apperr.NotFound("tier", inc.TierID)
		}
		if _, ok := eventSet[tier.EventID]; !ok {
			return nil, apperr.InvalidInput("tier %q does not belong to a bundled event", tier.Name)
		}
	}

	if err := s.repo.Create(ctx, bundle); err != nil {
		return nil, fmt.Errorf("failed to create bundle: %w", err)
	}
	s.invalidate(ctx, bundle)
	s.log.InfoContext(ctx, "Bundle Created", "bundle_id", bundle.ID.String(), "type", string(bundle.Type))
	return bundle, nil
}

// view attaches live availability and savings
func (s *service) view(ctx context.Context, bundle *TicketBundle) (*BundleView, error) {
	stock, err := s.tiers.GetTiers(ctx, bundle.TierIDs())
	if err != nil {
		return nil, err
	}
	regular := RegularPriceCents(bundle, stock)
	return &BundleView{
		TicketBundle:      *bundle,
		Available:         Available(bundle, stock),
		RegularPriceCents: regular,
		SavingsPercent:    PercentageSavings(regular, bundle.PriceCents),
	}, nil
}

func (s *service) GetBundle(ctx context.Context, id uuid.UUID) (*BundleView, error) {
	bundle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, bundle)
}

func (s *service) ListBundles(ctx context.Context, eventID uuid.UUID) ([]BundleView, error) {
	fetch := func() (interface{}, error) {
		bundles, err := s.repo.ListByEvent(ctx, eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to list bundles: %w", err)
		}
		views := make([]BundleView, 0, len(bundles))
		for i := range bundles {
			v, err := s.view(ctx, &bundles[i])
			if err != nil {
				return nil, err
			}
			views = append(views, *v)
		}
		return views, nil
	}

	if s.cache == nil {
		views, err := fetch()
		if err != nil {
			return nil, err
		}
		return views.([]BundleView), nil
	}

	var views []BundleView
	err := s.cache.GetOrSet(ctx, constants.BuildBundlesByEventKey(eventID.String()), constants.TTL_BUNDLES_BY_EVENT, fetch, &views)
	return views, err
}

func (s *service) IsBundleAvailable(ctx context.Context, id uuid.UUID, qty int) (*Availability, error) {
	if qty <= 0 {
		return nil, apperr.InvalidInput("quantity must be positive")
	}
	bundle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stock, err := s.tiers.GetTiers(ctx, bundle.TierIDs())
	if err != nil {
		return nil, err
	}
	// Pure check over current tier stock
	availability := Check(bundle, stock, qty, s.now())
	return &availability, nil
}

func (s *service) IncrementSold(ctx context.Context, id uuid.UUID, n int) error {
	ok, err := s.repo.IncrementSold(ctx, id, n)
	if err != nil {
		return fmt.Errorf("failed to increment bundle sold: %w", err)
	}
	if ok {
		return nil
	}

	// Rejected: report what is left
	bundle, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	remaining := max(bundle.TotalQuantity-bundle.Sold, 0)
	s.log.LogCapacityRejected(ctx, "bundle", id.String(), n, remaining)
	return apperr.CapacityExceeded(apperr.CodeInsufficientBundleQuantity, "only %d bundles left", remaining).
		WithDetail("remaining", remaining)
}

func (s *service) DecrementSold(ctx context.Context, id uuid.UUID, n int) error {
	delta, err := s.repo.DecrementSold(ctx, id, n)
	if err != nil {
		return fmt.Errorf("failed to decrement bundle sold: %w", err)
	}
	if delta < n {
		s.log.WarnContext(ctx, "Bundle sold decrement clamped at zero", "bundle_id", id.String(), "requested", n, "applied", delta)
	}
	return nil
}

// invalidate drops the cached bundle listing of every bundled event
func (s *service) invalidate(ctx context.Context, bundle *TicketBundle) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(bundle.Events()))
	for _, id := range bundle.Events() {
		keys = append(keys, constants.BuildBundlesByEventKey(id.String()))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.WarnContext(ctx, "Bundle cache invalidation failed", "error", err.Error())
	}
}
