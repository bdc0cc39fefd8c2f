package events

import (
	"time"

	"github.com/google/uuid"
)

// PaymentModel decides how an organizer pays for ticket capacity
type PaymentModel string

const (
	// PaymentModelPrePurchase consumes organizer credits when tier capacity is allocated
	PaymentModelPrePurchase PaymentModel = "PRE_PURCHASE"
	// PaymentModelPayAsYouSell charges fees per sold ticket only
	PaymentModelPayAsYouSell PaymentModel = "PAY_AS_YOU_SELL"
)

type Event struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OrganizerID  uuid.UUID    `json:"organizer_id" gorm:"type:uuid;index;not null"`
	Name         string       `json:"name" gorm:"not null;size:255"`
	StartsAt     time.Time    `json:"starts_at" gorm:"not null"`
	IsFree       bool         `json:"is_free" gorm:"not null;default:false"`
	PaymentModel PaymentModel `json:"payment_model" gorm:"type:varchar(20);not null;default:'PAY_AS_YOU_SELL'"`
	Status       EventStatus  `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Event) TableName() string {
	return "events"
}

// UsesCredits reports whether tier capacity on this event is paid with organizer credits
func (e *Event) UsesCredits() bool {
	return e.PaymentModel == PaymentModelPrePurchase
}

type CreateEventRequest struct {
	Name         string       `json:"name" validate:"required,min=3,max=255"`
	StartsAt     time.Time    `json:"starts_at" validate:"required"`
	IsFree       bool         `json:"is_free"`
	PaymentModel PaymentModel `json:"payment_model" validate:"omitempty,oneof=PRE_PURCHASE PAY_AS_YOU_SELL"`
	// OrganizerID lets an admin create an event on behalf of an organizer
	OrganizerID *uuid.UUID `json:"organizer_id"`
}

type UpdateEventStatusRequest struct {
	Status EventStatus `json:"status" validate:"required,oneof=draft published cancelled completed"`
}
