package credits

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
	// GetForUpdate returns the organizer's balance row locked for the current
	// transaction, creating an empty one first if none exists.
	GetForUpdate(ctx context.Context, organizerID uuid.UUID) (*OrganizerCredits, error)
	Get(ctx context.Context, organizerID uuid.UUID) (*OrganizerCredits, error)
	Save(ctx context.Context, balance *OrganizerCredits) error
	CreateAllocation(ctx context.Context, allocation *CreditAllocation) error

	CreateTransaction(ctx context.Context, tx *CreditTransaction) error
	GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*CreditTransaction, error)
	SaveTransaction(ctx context.Context, tx *CreditTransaction) error
	ListTransactions(ctx context.Context, organizerID uuid.UUID) ([]CreditTransaction, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetForUpdate(ctx context.Context, organizerID uuid.UUID) (*OrganizerCredits, error) {
	db := txn.DB(ctx, r.db)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&OrganizerCredits{OrganizerID: organizerID}).Error; err != nil {
		return nil, err
	}

	var balance OrganizerCredits
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("organizer_id = ?", organizerID).
		First(&balance).Error
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (r *repository) Get(ctx context.Context, organizerID uuid.UUID) (*OrganizerCredits, error) {
	var balance OrganizerCredits
	err := txn.DB(ctx, r.db).Where("organizer_id = ?", organizerID).First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &OrganizerCredits{OrganizerID: organizerID}, nil
		}
		return nil, err
	}
	return &balance, nil
}

func (r *repository) Save(ctx context.Context, balance *OrganizerCredits) error {
	return txn.DB(ctx, r.db).Save(balance).Error
}

func (r *repository) CreateAllocation(ctx context.Context, allocation *CreditAllocation) error {
	return txn.DB(ctx, r.db).Create(allocation).Error
}

func (r *repository) CreateTransaction(ctx context.Context, tx *CreditTransaction) error {
	return txn.DB(ctx, r.db).Create(tx).Error
}

func (r *repository) GetTransactionForUpdate(ctx context.Context, id uuid.UUID) (*CreditTransaction, error) {
	var tx CreditTransaction
	err := txn.DB(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("credit transaction", id)
		}
		return nil, err
	}
	return &tx, nil
}

func (r *repository) SaveTransaction(ctx context.Context, tx *CreditTransaction) error {
	return txn.DB(ctx, r.db).Save(tx).Error
}

func (r *repository) ListTransactions(ctx context.Context, organizerID uuid.UUID) ([]CreditTransaction, error) {
	var txs []CreditTransaction
	err := txn.DB(ctx, r.db).
		Where("organizer_id = ?", organizerID).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}
