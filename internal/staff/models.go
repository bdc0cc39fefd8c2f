package staff

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CommissionType string

const (
	CommissionPercentage CommissionType = "PERCENTAGE"
	CommissionFixed      CommissionType = "FIXED"
)

// EventStaff is a seller attributed through a referral code. A nil EventID
// makes the staff member organizer-wide.
type EventStaff struct {
	ID              uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizerID     uuid.UUID       `json:"organizer_id" gorm:"type:uuid;index;not null"`
	EventID         *uuid.UUID      `json:"event_id,omitempty" gorm:"type:uuid;index"`
	Name            string          `json:"name" gorm:"size:255;not null"`
	Email           string          `json:"email" gorm:"size:255"`
	CommissionType  CommissionType  `json:"commission_type" gorm:"type:varchar(20);not null;check:commission_type IN ('PERCENTAGE', 'FIXED')"`
	CommissionValue decimal.Decimal `json:"commission_value" gorm:"type:numeric(12,4);not null"`
	ReferralCode    string          `json:"referral_code" gorm:"size:32;uniqueIndex;not null"`
	IsActive        bool            `json:"is_active" gorm:"not null;default:true"`

	// Running totals; always equal to the sum of this staff member's StaffSale rows
	TicketsSold           int   `json:"tickets_sold" gorm:"not null;default:0"`
	CommissionEarnedCents int64 `json:"commission_earned_cents" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (EventStaff) TableName() string {
	return "event_staff"
}

// AppliesTo reports whether the staff member may sell for the given event of organizerID
func (s *EventStaff) AppliesTo(eventID, organizerID uuid.UUID) bool {
	if s.EventID != nil {
		return *s.EventID == eventID
	}
	return s.OrganizerID == organizerID
}

type SaleKind string

const (
	SaleKindSale     SaleKind = "SALE"
	SaleKindReversal SaleKind = "REVERSAL"
)

// StaffSale is an append-only audit row. Reversals carry negative amounts.
type StaffSale struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	StaffID         uuid.UUID `json:"staff_id" gorm:"type:uuid;not null;uniqueIndex:idx_staff_sale_order_kind"`
	OrderID         uuid.UUID `json:"order_id" gorm:"type:uuid;not null;uniqueIndex:idx_staff_sale_order_kind"`
	Kind            SaleKind  `json:"kind" gorm:"type:varchar(10);not null;uniqueIndex:idx_staff_sale_order_kind"`
	EventID         uuid.UUID `json:"event_id" gorm:"type:uuid;index;not null"`
	TicketCount     int       `json:"ticket_count" gorm:"not null"`
	SaleAmountCents int64     `json:"sale_amount_cents" gorm:"not null"`
	CommissionCents int64     `json:"commission_cents" gorm:"not null"`
	CreatedAt       time.Time `json:"created_at"`
}

func (StaffSale) TableName() string {
	return "staff_sales"
}

// SaleInput describes one settled order for commission purposes.
// SaleAmountCents is the pre-fee subtotal. It is always derived from a stored order.
type SaleInput struct {
	OrderID         uuid.UUID
	EventID         uuid.UUID
	TicketCount     int
	SaleAmountCents int64
	IsFree          bool
}

// OrderFacts is the part of a stored order the commission engine reads
type OrderFacts struct {
	ID            uuid.UUID
	EventID       uuid.UUID
	Status        string
	TicketCount   int
	SubtotalCents int64
	// IsFree covers free events and zero-subtotal registrations
	IsFree        bool
	SoldByStaffID *uuid.UUID
}

// RecordSaleRequest attributes a completed order to the staff member owning the referral code
type RecordSaleRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
}

type CreateStaffRequest struct {
	OrganizerID     *uuid.UUID      `json:"organizer_id"`
	EventID         *uuid.UUID      `json:"event_id"`
	Name            string          `json:"name" validate:"required,max=255"`
	Email           string          `json:"email" validate:"omitempty,email"`
	CommissionType  CommissionType  `json:"commission_type" validate:"required,oneof=PERCENTAGE FIXED"`
	CommissionValue decimal.Decimal `json:"commission_value"`
	ReferralCode    string          `json:"referral_code" validate:"omitempty,alphanum,min=4,max=32"`
}

// Reconciliation compares stored aggregates with the sum of StaffSale rows
type Reconciliation struct {
	StaffID                uuid.UUID `json:"staff_id"`
	StoredTicketsSold      int       `json:"stored_tickets_sold"`
	StoredCommissionCents  int64     `json:"stored_commission_cents"`
	DerivedTicketsSold     int       `json:"derived_tickets_sold"`
	DerivedCommissionCents int64     `json:"derived_commission_cents"`
	Drifted                bool      `json:"drifted"`
}
