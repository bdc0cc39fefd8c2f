package memory

import (
	"context"
	"slices"
	"time"

	"ticketcore/internal/bundles"
	"ticketcore/internal/shared/apperr"

	"github.com/google/uuid"
)

type bundleRepo struct {
	store *Store
}

// copyBundle detaches the slices so stored bundles cannot be mutated through callers
func copyBundle(b bundles.TicketBundle) bundles.TicketBundle {
	b.EventIDs = slices.Clone(b.EventIDs)
	b.IncludedTiers = slices.Clone(b.IncludedTiers)
	return b
}

func (r *bundleRepo) Create(ctx context.Context, bundle *bundles.TicketBundle) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		if bundle.ID == uuid.Nil {
			bundle.ID = uuid.New()
		}
		touch(&bundle.CreatedAt, &bundle.UpdatedAt, now)
		st.bundles[bundle.ID] = copyBundle(*bundle)
		return nil
	})
}

func (r *bundleRepo) GetByID(ctx context.Context, id uuid.UUID) (*bundles.TicketBundle, error) {
	var out bundles.TicketBundle
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		bundle, ok := st.bundles[id]
		if !ok {
			return apperr.NotFound("bundle", id)
		}
		out = copyBundle(bundle)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bundleRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]bundles.TicketBundle, error) {
	var out []bundles.TicketBundle
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.bundles,
			func(b bundles.TicketBundle) bool {
				return (b.EventID != nil && *b.EventID == eventID) || slices.Contains(b.EventIDs, eventID)
			},
			func(b bundles.TicketBundle) time.Time { return b.CreatedAt },
			func(b bundles.TicketBundle) uuid.UUID { return b.ID })
		for i := range out {
			out[i] = copyBundle(out[i])
		}
		return nil
	})
	return out, err
}

func (r *bundleRepo) IncrementSold(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	applied := false
	err := r.store.do(ctx, func(st *state, now time.Time) error {
		bundle, ok := st.bundles[id]
		if !ok || bundle.Sold+n > bundle.TotalQuantity {
			return nil
		}
		bundle.Sold += n
		bundle.UpdatedAt = now
		st.bundles[id] = bundle
		applied = true
		return nil
	})
	return applied, err
}

func (r *bundleRepo) DecrementSold(ctx context.Context, id uuid.UUID, n int) (int, error) {
	delta := 0
	err := r.store.do(ctx, func(st *state, now time.Time) error {
		bundle, ok := st.bundles[id]
		if !ok {
			return apperr.NotFound("bundle", id)
		}
		delta = min(n, bundle.Sold)
		bundle.Sold -= delta
		bundle.UpdatedAt = now
		st.bundles[id] = bundle
		return nil
	})
	return delta, err
}
