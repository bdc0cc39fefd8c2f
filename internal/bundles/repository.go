package bundles

import (
	"context"
	"errors"
	"fmt"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Create(ctx context.Context, bundle *TicketBundle) error
	GetByID(ctx context.Context, id uuid.UUID) (*TicketBundle, error)
	// ListByEvent returns single-event bundles of the event and multi-event bundles that include it
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]TicketBundle, error)
	IncrementSold(ctx context.Context, id uuid.UUID, n int) (bool, error)
	DecrementSold(ctx context.Context, id uuid.UUID, n int) (int, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, bundle *TicketBundle) error {
	return txn.DB(ctx, r.db).Create(bundle).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*TicketBundle, error) {
	var bundle TicketBundle
	if err := txn.DB(ctx, r.db).Where("id = ?", id).First(&bundle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bundle", id)
		}
		return nil, err
	}
	return &bundle, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]TicketBundle, error) {
	var bundles []TicketBundle
	err := txn.DB(ctx, r.db).
		Where("event_id = ? OR event_ids @> ?::jsonb", eventID, fmt.Sprintf(`[%q]`, eventID.String())).
		Order("created_at ASC").
		Find(&bundles).Error
	return bundles, err
}

func (r *repository) IncrementSold(ctx context.Context, id uuid.UUID, n int) (bool, error) {
	result := txn.DB(ctx, r.db).Model(&TicketBundle{}).
		Where("id = ? AND sold + ? <= total_quantity", id, n).
		UpdateColumn("sold", gorm.Expr("sold + ?", n))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repository) DecrementSold(ctx context.Context, id uuid.UUID, n int) (int, error) {
	var bundle TicketBundle
	err := txn.DB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&bundle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperr.NotFound("bundle", id)
		}
		return 0, err
	}
	delta := min(n, bundle.Sold)
	if delta == 0 {
		return 0, nil
	}
	err = txn.DB(ctx, r.db).Model(&TicketBundle{}).
		Where("id = ?", id).
		UpdateColumn("sold", gorm.Expr("sold - ?", delta)).Error
	return delta, err
}
