package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/tiers"

	"github.com/google/uuid"
)

// tierRepo implements tiers.Repository over the shared state
type tierRepo struct {
	store *Store
}

func (r *tierRepo) Create(ctx context.Context, tier *tiers.TicketTier) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		if tier.ID == uuid.Nil {
			tier.ID = uuid.New()
		}
		if _, exists := st.tiers[tier.ID]; exists {
			return apperr.InvalidInput("tier %s already exists", tier.ID)
		}
		touch(&tier.CreatedAt, &tier.UpdatedAt, now)
		st.tiers[tier.ID] = *tier
		return nil
	})
}

func (r *tierRepo) GetByID(ctx context.Context, id uuid.UUID) (*tiers.TicketTier, error) {
	var out tiers.TicketTier
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		tier, ok := st.tiers[id]
		if !ok {
			return apperr.NotFound("tier", id)
		}
		out = tier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetForUpdate is GetByID: the store lock already serialises transactions
func (r *tierRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*tiers.TicketTier, error) {
	return r.GetByID(ctx, id)
}

func (r *tierRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]tiers.TicketTier, error) {
	out := make([]tiers.TicketTier, 0, len(ids))
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		seen := make(map[uuid.UUID]bool, len(ids))
		for _, id := range ids {
			if tier, ok := st.tiers[id]; ok && !seen[id] {
				seen[id] = true
				out = append(out, tier)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b tiers.TicketTier) int {
		return cmp.Compare(a.ID.String(), b.ID.String())
	})
	return out, err
}

func (r *tierRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]tiers.TicketTier, error) {
	var out []tiers.TicketTier
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.tiers,
			func(t tiers.TicketTier) bool { return t.EventID == eventID },
			func(t tiers.TicketTier) time.Time { return t.CreatedAt },
			func(t tiers.TicketTier) uuid.UUID { return t.ID })
		return nil
	})
	slices.SortStableFunc(out, func(a, b tiers.TicketTier) int {
		return cmp.Compare(a.PriceCents, b.PriceCents)
	})
	return out, err
}

func (r *tierRepo) Update(ctx context.Context, tier *tiers.TicketTier) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		stored, ok := st.tiers[tier.ID]
		if !ok {
			return apperr.NotFound("tier", tier.ID)
		}
		// Sold is owned by Increment/DecrementSold and never written here
		stored.Name = tier.Name
		stored.Description = tier.Description
		stored.PriceCents = tier.PriceCents
		stored.Quantity = tier.Quantity
		stored.SaleStart = tier.SaleStart
		stored.SaleEnd = tier.SaleEnd
		stored.IsActive = tier.IsActive
		stored.UpdatedAt = now
		tier.UpdatedAt = now
		st.tiers[tier.ID] = stored
		return nil
	})
}

func (r *tierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.do(ctx, func(st *state, _ time.Time) error {
		// Same guard as the gorm delete: sold tiers are kept
		if tier, ok := st.tiers[id]; ok && tier.Sold == 0 {
			delete(st.tiers, id)
		}
		return nil
	})
}

// IncrementSold applies only while the tier has room, like the conditional UPDATE
func (r *tierRepo) IncrementSold(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	applied := false
	err := r.store.do(ctx, func(st *state, now time.Time) error {
		tier, ok := st.tiers[id]
		if !ok || tier.Sold+n > tier.Quantity {
			return nil
		}
		tier.Sold += n
		tier.UpdatedAt = now
		st.tiers[id] = tier
		applied = true
		return nil
	})
	return applied, err
}

// DecrementSold clamps at zero and returns the amount applied
func (r *tierRepo) DecrementSold(ctx context.Context, id uuid.UUID, n int) (int, error) {
	delta := 0
	err := r.store.do(ctx, func(st *state, now time.Time) error {
		tier, ok := st.tiers[id]
		if !ok {
			return apperr.NotFound("tier", id)
		}
		delta = min(n, tier.Sold)
		tier.Sold -= delta
		tier.UpdatedAt = now
		st.tiers[id] = tier
		return nil
	})
	return delta, err
}
