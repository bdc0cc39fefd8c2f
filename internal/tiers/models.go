package tiers

import (
	"time"

	"github.com/google/uuid"
)

// TicketTier is a priced class of ticket with fixed capacity for one event.
// Sold is only ever changed by order settlement.
type TicketTier struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	EventID     uuid.UUID  `json:"event_id" gorm:"type:uuid;index;not null"`
	Name        string     `json:"name" gorm:"size:255;not null"`
	Description string     `json:"description,omitempty" gorm:"type:text"`
	PriceCents  int64      `json:"price_cents" gorm:"not null;check:price_cents >= 0"`
	Quantity    int        `json:"quantity" gorm:"not null;check:quantity >= 0"`
	Sold        int        `json:"sold" gorm:"not null;default:0;check:sold >= 0"`
	SaleStart   *time.Time `json:"sale_start,omitempty"`
	SaleEnd     *time.Time `json:"sale_end,omitempty"`
	IsActive    bool       `json:"is_active" gorm:"not null;default:true"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (TicketTier) TableName() string {
	return "ticket_tiers"
}

func (t *TicketTier) Available() int {
	if t.Sold >= t.Quantity {
		return 0
	}
	return t.Quantity - t.Sold
}

// TierView is a tier with its derived availability, as served to checkout
type TierView struct {
	TicketTier
	Available int `json:"available"`
}

func NewTierView(t TicketTier) TierView {
	return TierView{TicketTier: t, Available: t.Available()}
}

type CreateTierRequest struct {
	EventID     uuid.UUID  `json:"event_id" validate:"required"`
	Name        string     `json:"name" validate:"required,min=1,max=255"`
	Description string     `json:"description" validate:"max=2000"`
	PriceCents  int64      `json:"price_cents" validate:"min=0"`
	Quantity    int        `json:"quantity" validate:"required,min=1"`
	SaleStart   *time.Time `json:"sale_start"`
	SaleEnd     *time.Time `json:"sale_end"`
}

// UpdateTierRequest changes tier attributes. A Quantity change goes through the resize path.
type UpdateTierRequest struct {
	Name        *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=2000"`
	PriceCents  *int64     `json:"price_cents" validate:"omitempty,min=0"`
	Quantity    *int       `json:"quantity" validate:"omitempty,min=0"`
	SaleStart   *time.Time `json:"sale_start"`
	SaleEnd     *time.Time `json:"sale_end"`
	IsActive    *bool      `json:"is_active"`
}

type ResizeTierRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}
