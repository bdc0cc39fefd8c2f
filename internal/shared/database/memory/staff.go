package memory

import (
	"context"
	"time"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/staff"

	"github.com/google/uuid"
)

// staffRepo implements staff.Repository over the shared state
type staffRepo struct {
	store *Store
}

func (r *staffRepo) Create(ctx context.Context, member *staff.EventStaff) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		if member.ID == uuid.Nil {
			member.ID = uuid.New()
		}
		// Unique referral_code
		for _, existing := range st.staff {
			if existing.ReferralCode == member.ReferralCode {
				return apperr.InvalidInput("referral code %q is already in use", member.ReferralCode)
			}
		}
		touch(&member.CreatedAt, &member.UpdatedAt, now)
		st.staff[member.ID] = *member
		return nil
	})
}

func (r *staffRepo) find(ctx context.Context, resource string, key any, match func(staff.EventStaff) bool) (*staff.EventStaff, error) {
	var out *staff.EventStaff
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		for _, member := range st.staff {
			if match(member) {
				m := member
				out = &m
				return nil
			}
		}
		return apperr.NotFound(resource, key)
	})
	return out, err
}

func (r *staffRepo) GetByID(ctx context.Context, id uuid.UUID) (*staff.EventStaff, error) {
	return r.find(ctx, "staff", id, func(m staff.EventStaff) bool { return m.ID == id })
}

// GetForUpdate needs no row lock: the store mutex already serialises transactions
func (r *staffRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*staff.EventStaff, error) {
	return r.GetByID(ctx, id)
}

func (r *staffRepo) GetByReferralCode(ctx context.Context, code string) (*staff.EventStaff, error) {
	return r.find(ctx, "referral code", code, func(m staff.EventStaff) bool { return m.ReferralCode == code })
}

func (r *staffRepo) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByReferralCode(ctx, code)
	if apperr.IsKind(err, apperr.KindNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *staffRepo) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]staff.EventStaff, error) {
	var out []staff.EventStaff
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.staff,
			func(m staff.EventStaff) bool { return m.OrganizerID == organizerID },
			func(m staff.EventStaff) time.Time { return m.CreatedAt },
			func(m staff.EventStaff) uuid.UUID { return m.ID })
		return nil
	})
	return out, err
}

func (r *staffRepo) Save(ctx context.Context, member *staff.EventStaff) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		touch(&member.CreatedAt, &member.UpdatedAt, now)
		st.staff[member.ID] = *member
		return nil
	})
}

func (r *staffRepo) AddTotals(ctx context.Context, id uuid.UUID, tickets int, commissionCents int64) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		member, ok := st.staff[id]
		if !ok {
			return nil
		}
		member.TicketsSold += tickets
		member.CommissionEarnedCents += commissionCents
		member.UpdatedAt = now
		st.staff[id] = member
		return nil
	})
}

// CreateSale mirrors uniq (staff_id, order_id, kind) and the one-SALE-per-order index
func (r *staffRepo) CreateSale(ctx context.Context, sale *staff.StaffSale) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		for _, existing := range st.sales {
			if existing.StaffID == sale.StaffID && existing.OrderID == sale.OrderID && existing.Kind == sale.Kind {
				return apperr.State(apperr.CodeStaffSaleExists, "a %s is already recorded for order %s", sale.Kind, sale.OrderID)
			}
			if sale.Kind == staff.SaleKindSale && existing.Kind == staff.SaleKindSale && existing.OrderID == sale.OrderID {
				return apperr.State(apperr.CodeStaffSaleExists, "order %s is already attributed to another staff member", sale.OrderID)
			}
		}
		if sale.ID == uuid.Nil {
			sale.ID = uuid.New()
		}
		touch(&sale.CreatedAt, nil, now)
		st.sales[sale.ID] = *sale
		return nil
	})
}

func (r *staffRepo) FindSale(ctx context.Context, staffID, orderID uuid.UUID, kind staff.SaleKind) (*staff.StaffSale, error) {
	var out *staff.StaffSale
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		for _, sale := range st.sales {
			if sale.StaffID == staffID && sale.OrderID == orderID && sale.Kind == kind {
				s := sale
				out = &s
				break
			}
		}
		return nil
	})
	return out, err
}

func (r *staffRepo) ListSales(ctx context.Context, staffID uuid.UUID) ([]staff.StaffSale, error) {
	var out []staff.StaffSale
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.sales,
			func(s staff.StaffSale) bool { return s.StaffID == staffID },
			func(s staff.StaffSale) time.Time { return s.CreatedAt },
			func(s staff.StaffSale) uuid.UUID { return s.ID })
		return nil
	})
	return out, err
}

func (r *staffRepo) OrderHasSale(ctx context.Context, orderID uuid.UUID) (bool, error) {
	found := false
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		for _, sale := range st.sales {
			if sale.OrderID == orderID && sale.Kind == staff.SaleKindSale {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}
