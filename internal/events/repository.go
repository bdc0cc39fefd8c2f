package events

import (
	"context"
	"errors"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*Event, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status EventStatus) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, event *Event) error {
	return txn.DB(ctx, r.db).Create(event).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	var event Event
	err := txn.DB(ctx, r.db).Where("id = ?", id).First(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("event", id)
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]Event, error) {
	var events []Event
	err := txn.DB(ctx, r.db).
		Where("organizer_id = ?", organizerID).
		Order("created_at ASC").
		Find(&events).Error
	return events, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status EventStatus) error {
	result := txn.DB(ctx, r.db).Model(&Event{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("event", id)
	}
	return nil
}
