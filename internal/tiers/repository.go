package tiers

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
	Create(ctx context.Context, tier *TicketTier) error
	GetByID(ctx context.Context, id uuid.UUID) (*TicketTier, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*TicketTier, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]TicketTier, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]TicketTier, error)
	// Update writes the mutable attributes. It never touches Sold.
	Update(ctx context.Context, tier *TicketTier) error
	Delete(ctx context.Context, id uuid.UUID) error

	// IncrementSold adds n to sold only if the result stays within quantity.
	// It reports false without error when the bound would be exceeded.
	IncrementSold(ctx context.Context, id uuid.UUID, n int) (bool, error)
	// DecrementSold subtracts up to n from sold and returns how much was subtracted.
	DecrementSold(ctx context.Context, id uuid.UUID, n int) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, tier *TicketTier) error {
	return txn.DB(ctx, r.db).Create(tier).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*TicketTier, error) {
	return r.first(txn.DB(ctx, r.db), id)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*TicketTier, error) {
	return r.first(txn.DB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *repository) first(db *gorm.DB, id uuid.UUID) (*TicketTier, error) {
	var tier TicketTier
	if err := db.Where("id = ?", id).First(&tier).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("tier", id)
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]TicketTier, error) {
	var tiers []TicketTier
	if len(ids) == 0 {
		return tiers, nil
	}
	// id order keeps lock acquisition consistent across callers
	err := txn.DB(ctx, r.db).Where("id IN ?", ids).Order("id ASC").Find(&tiers).Error
	return tiers, err
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]TicketTier, error) {
	var tiers []TicketTier
	err := txn.DB(ctx, r.db).
		Where("event_id = ?", eventID).
		Order("price_cents ASC, created_at ASC").
		Find(&tiers).Error
	return tiers, err
}

func (r *repository) Update(ctx context.Context, tier *TicketTier) error {
	// Explicit column list: sold is never written from a loaded struct
	result := txn.DB(ctx, r.db).Model(tier).
		Select("name", "description", "price_cents", "quantity", "sale_start", "sale_end", "is_active", "updated_at").
		Updates(tier)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("tier", tier.ID)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return txn.DB(ctx, r.db).Where("id = ? AND sold = 0", id).Delete(&TicketTier{}).Error
}

func (r *repository) IncrementSold(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	// Conditional update, zero rows affected means no room
	result := txn.DB(ctx, r.db).Model(&TicketTier{}).
		Where("id = ? AND sold + ? <= quantity", id, n).
		UpdateColumn("sold", gorm.Expr("sold + ?", n))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) DecrementSold(ctx context.Context, id uuid.UUID, n int) (int, error) {
	tier, err := r.GetForUpdate(ctx, id)
	if err != nil {
		return 0, err
	}
	delta := min(n, tier.Sold)
	if delta == 0 {
		return 0, nil
	}
	err = txn.DB(ctx, r.db).Model(&TicketTier{}).
		Where("id = ?", id).
		UpdateColumn("sold", gorm.Expr("sold - ?", delta)).Error
	return delta, err
}
