package memory

import (
	"context"
	"slices"
	"time"

	"ticketcore/internal/credits"
	"ticketcore/internal/shared/apperr"

	"github.com/google/uuid"
)

type creditRepo struct {
	store *Store
}

// GetForUpdate creates the zero balance on first use, like the insert-on-conflict in the gorm repo
func (r *creditRepo) GetForUpdate(ctx context.Context, organizerID uuid.UUID) (*credits.OrganizerCredits, error) {
	var out credits.OrganizerCredits
	err := r.store.do(ctx, func(st *state, now time.Time) error {
		balance, ok := st.balances[organizerID]
		if !ok {
			balance = credits.OrganizerCredits{OrganizerID: organizerID, UpdatedAt: now}
			st.balances[organizerID] = balance
		}
		out = balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns a zero balance for organizers that never allocated
func (r *creditRepo) Get(ctx context.Context, organizerID uuid.UUID) (*credits.OrganizerCredits, error) {
	out := credits.OrganizerCredits{OrganizerID: organizerID}
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		if balance, ok := st.balances[organizerID]; ok {
			out = balance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out.FirstEventID != nil {
		id := *out.FirstEventID
		out.FirstEventID = &id
	}
	return &out, nil
}

func (r *creditRepo) Save(ctx context.Context, balance *credits.OrganizerCredits) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		// Non-negative checks from the schema
		if balance.CreditsTotal < 0 || balance.CreditsUsed < 0 || balance.CreditsRemaining < 0 || balance.FreeCreditsRemaining < 0 {
			return apperr.InvalidInput("credit balance for %s would go negative", balance.OrganizerID)
		}
		balance.UpdatedAt = now
		st.balances[balance.OrganizerID] = *balance
		return nil
	})
}

func (r *creditRepo) CreateAllocation(ctx context.Context, allocation *credits.CreditAllocation) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		if allocation.ID == uuid.Nil {
			allocation.ID = uuid.New()
		}
		touch(&allocation.CreatedAt, nil, now)
		st.allocations[allocation.ID] = *allocation
		return nil
	})
}

func (r *creditRepo) CreateTransaction(ctx context.Context, tx *credits.CreditTransaction) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		if tx.ID == uuid.Nil {
			tx.ID = uuid.New()
		}
		if _, exists := st.creditTxs[tx.ID]; exists {
			return apperr.InvalidInput("credit transaction %s already exists", tx.ID)
		}
		touch(&tx.CreatedAt, &tx.UpdatedAt, now)
		st.creditTxs[tx.ID] = *tx
		return nil
	})
}

func (r *creditRepo) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*credits.CreditTransaction, error) {
	var out credits.CreditTransaction
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		tx, ok := st.creditTxs[id]
		if !ok {
			return apperr.NotFound("credit transaction", id)
		}
		out = tx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *creditRepo) SaveTransaction(ctx context.Context, tx *credits.CreditTransaction) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		touch(&tx.CreatedAt, &tx.UpdatedAt, now)
		st.creditTxs[tx.ID] = *tx
		return nil
	})
}

func (r *creditRepo) ListTransactions(ctx context.Context, organizerID uuid.UUID) ([]credits.CreditTransaction, error) {
	var out []credits.CreditTransaction
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.creditTxs,
			func(tx credits.CreditTransaction) bool { return tx.OrganizerID == organizerID },
			func(tx credits.CreditTransaction) time.Time { return tx.CreatedAt },
			func(tx credits.CreditTransaction) uuid.UUID { return tx.ID })
		return nil
	})
	slices.Reverse(out)
	return out, err
}

// Allocations returns the allocation journal of an organizer, oldest first
func (s *Store) Allocations(organizerID uuid.UUID) []credits.CreditAllocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.allocations,
		func(a credits.CreditAllocation) bool { return a.OrganizerID == organizerID },
		func(a credits.CreditAllocation) time.Time { return a.CreatedAt },
		func(a credits.CreditAllocation) uuid.UUID { return a.ID })
}
