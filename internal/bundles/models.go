package bundles

import (
	"time"

	"github.com/google/uuid"
)

type BundleType string

const (
	BundleTypeSingleEvent BundleType = "SINGLE_EVENT"
	BundleTypeMultiEvent  BundleType = "MULTI_EVENT"
)

// IncludedTier is the number of units of one tier consumed by one bundle unit
type IncludedTier struct {
	TierID   uuid.UUID `json:"tier_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

// TicketBundle is a browsing-time grouping of tiers. At settlement it expands
// into ordinary tier order items and has no reservation path of its own.
type TicketBundle struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizerID   uuid.UUID      `json:"organizer_id" gorm:"type:uuid;index;not null"`
	Name          string         `json:"name" gorm:"size:255;not null"`
	Description   string         `json:"description,omitempty" gorm:"type:text"`
	Type          BundleType     `json:"type" gorm:"type:varchar(20);not null;check:type IN ('SINGLE_EVENT', 'MULTI_EVENT')"`
	EventID       *uuid.UUID     `json:"event_id,omitempty" gorm:"type:uuid;index"`
	EventIDs      []uuid.UUID    `json:"event_ids,omitempty" gorm:"type:jsonb;serializer:json"`
	IncludedTiers []IncludedTier `json:"included_tiers" gorm:"type:jsonb;serializer:json;not null"`
	PriceCents    int64          `json:"price_cents" gorm:"not null;check:price_cents >= 0"`
	TotalQuantity int            `json:"total_quantity" gorm:"not null;check:total_quantity >= 0"`
	Sold          int            `json:"sold" gorm:"not null;default:0;check:sold >= 0"`
	SaleStart     *time.Time     `json:"sale_start,omitempty"`
	SaleEnd       *time.Time     `json:"sale_end,omitempty"`
	IsActive      bool           `json:"is_active" gorm:"not null;default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (TicketBundle) TableName() string {
	return "ticket_bundles"
}

// Events lists every event the bundle draws inventory from
func (b *TicketBundle) Events() []uuid.UUID {
	if b.Type == BundleTypeMultiEvent {
		return b.EventIDs
	}
	if b.EventID == nil {
		return nil
	}
	return []uuid.UUID{*b.EventID}
}

func (b *TicketBundle) TierIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.IncludedTiers))
	for _, inc := range b.IncludedTiers {
		ids = append(ids, inc.TierID)
	}
	return ids
}

// BundleView is a bundle with its derived availability and savings
type BundleView struct {
	TicketBundle
	Available         int   `json:"available"`
	RegularPriceCents int64 `json:"regular_price_cents"`
	SavingsPercent    int64 `json:"savings_percent"`
}

type CreateBundleRequest struct {
	Name          string         `json:"name" validate:"required,max=255"`
	Description   string         `json:"description" validate:"max=2000"`
	Type          BundleType     `json:"type" validate:"required,oneof=SINGLE_EVENT MULTI_EVENT"`
	EventID       *uuid.UUID     `json:"event_id"`
	EventIDs      []uuid.UUID    `json:"event_ids"`
	IncludedTiers []IncludedTier `json:"included_tiers" validate:"required,min=1,dive"`
	PriceCents    int64          `json:"price_cents" validate:"min=0"`
	TotalQuantity int            `json:"total_quantity" validate:"required,min=1"`
	SaleStart     *time.Time     `json:"sale_start"`
	SaleEnd       *time.Time     `json:"sale_end"`
}
