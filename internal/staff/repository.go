package staff

import (
	"context"
	"errors"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Staff members
	Create(ctx context.Context, staff *EventStaff) error
	GetByID(ctx context.Context, id uuid.UUID) (*EventStaff, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*EventStaff, error)
	GetByReferralCode(ctx context.Context, code string) (*EventStaff, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]EventStaff, error)
	Save(ctx context.Context, staff *EventStaff) error
	// AddTotals adjusts the running aggregates in place
	AddTotals(ctx context.Context, id uuid.UUID, tickets int, commissionCents int64) error

	// Sales ledger
	CreateSale(ctx context.Context, sale *StaffSale) error
	FindSale(ctx context.Context, staffID, orderID uuid.UUID, kind SaleKind) (*StaffSale, error)
	ListSales(ctx context.Context, staffID uuid.UUID) ([]StaffSale, error)
	// OrderHasSale reports whether any staff member holds a SALE row for the order
	OrderHasSale(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, staff *EventStaff) error {
	err := txn.DB(ctx, r.db).Create(staff).Error
	// Lost a race on the unique referral_code
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.InvalidInput("referral code %q is already in use", staff.ReferralCode)
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*EventStaff, error) {
	return r.first(txn.DB(ctx, r.db).Where("id = ?", id), "staff", id)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*EventStaff, error) {
	return r.first(txn.DB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id), "staff", id)
}

func (r *repository) GetByReferralCode(ctx context.Context, code string) (*EventStaff, error) {
	return r.first(txn.DB(ctx, r.db).Where("referral_code = ?", code), "referral code", code)
}

func (r *repository) first(query *gorm.DB, resource string, key any) (*EventStaff, error) {
	var staff EventStaff
	if err := query.First(&staff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(resource, key)
		}
		return nil, err
	}
	return &staff, nil
}

func (r *repository) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := txn.DB(ctx, r.db).Model(&EventStaff{}).Where("referral_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]EventStaff, error) {
	var staff []EventStaff
	err := txn.DB(ctx, r.db).
		Where("organizer_id = ?", organizerID).
		Order("created_at ASC").
		Find(&staff).Error
	return staff, err
}

func (r *repository) Save(ctx context.Context, staff *EventStaff) error {
	return txn.DB(ctx, r.db).Save(staff).Error
}

func (r *repository) AddTotals(ctx context.Context, id uuid.UUID, tickets int, commissionCents int64) error {
	// Relative update so concurrent writers cannot lose an increment
	return txn.DB(ctx, r.db).Model(&EventStaff{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"tickets_sold":            gorm.Expr("tickets_sold + ?", tickets),
			"commission_earned_cents": gorm.Expr("commission_earned_cents + ?", commissionCents),
		}).Error
}

func (r *repository) CreateSale(ctx context.Context, sale *StaffSale) error {
	err := txn.DB(ctx, r.db).Create(sale).Error
	// Either unique index on staff_sales
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.State(apperr.CodeStaffSaleExists, "a %s is already recorded for order %s", sale.Kind, sale.OrderID)
	}
	return err
}

func (r *repository) FindSale(ctx context.Context, staffID, orderID uuid.UUID, kind SaleKind) (*StaffSale, error) {
	var sale StaffSale
	err := txn.DB(ctx, r.db).
		Where("staff_id = ? AND order_id = ? AND kind = ?", staffID, orderID, kind).
		First(&sale).Error
	if err != nil {
		// Absence is a normal answer here
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sale, nil
}

func (r *repository) ListSales(ctx context.Context, staffID uuid.UUID) ([]StaffSale, error) {
	var sales []StaffSale
	err := txn.DB(ctx, r.db).
		Where("staff_id = ?", staffID).
		Order("created_at ASC").
		Find(&sales).Error
	return sales, err
}

func (r *repository) OrderHasSale(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	err := txn.DB(ctx, r.db).Model(&StaffSale{}).
		Where("order_id = ? AND kind = ?", orderID, SaleKindSale).
		Count(&count).Error
	return count > 0, err
}
