package orders

import (
	"time"

	"ticketcore/internal/seats"

	"github.com/google/uuid"
)

// Order is a purchase intent. Inventory is only consumed when it completes.
type Order struct {
	ID      uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	BuyerID uuid.UUID   `json:"buyer_id" gorm:"type:uuid;index;not null"`
	EventID uuid.UUID   `json:"event_id" gorm:"type:uuid;index;not null"`
	Status  OrderStatus `json:"status" gorm:"type:varchar(20);not null;index;check:status IN ('PENDING', 'COMPLETED', 'CANCELLED', 'FAILED', 'REFUNDED');default:'PENDING'"`
	IsFree  bool        `json:"is_free" gorm:"not null;default:false"`

	TicketCount        int    `json:"ticket_count" gorm:"not null"`
	SubtotalCents      int64  `json:"subtotal_cents" gorm:"not null"`
	PlatformFeeCents   int64  `json:"platform_fee_cents" gorm:"not null"`
	ProcessingFeeCents int64  `json:"processing_fee_cents" gorm:"not null"`
	TotalCents         int64  `json:"total_cents" gorm:"not null"`
	Currency           string `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`

	ChartID       *uuid.UUID      `json:"chart_id,omitempty" gorm:"type:uuid"`
	SelectedSeats []seats.SeatRef `json:"selected_seats,omitempty" gorm:"type:jsonb;serializer:json"`

	// Attribution is locked at creation, like price
	SoldByStaffID *uuid.UUID `json:"sold_by_staff_id,omitempty" gorm:"type:uuid;index"`
	ReferralCode  string     `json:"referral_code,omitempty" gorm:"size:32"`

	BundleID       *uuid.UUID `json:"bundle_id,omitempty" gorm:"type:uuid;index"`
	BundleQuantity int        `json:"bundle_quantity,omitempty" gorm:"not null;default:0"`

	PaymentID     string `json:"payment_id,omitempty" gorm:"size:255;index"`
	PaymentMethod string `json:"payment_method,omitempty" gorm:"size:50"`
	FailureReason string `json:"failure_reason,omitempty" gorm:"type:text"`

	AttendeeName  string `json:"attendee_name,omitempty" gorm:"size:255"`
	AttendeeEmail string `json:"attendee_email,omitempty" gorm:"size:255"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Items []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;"`
}

func (Order) TableName() string {
	return "orders"
}

// PaysNoCommission covers free events and zero-subtotal registrations on paid events
func (o *Order) PaysNoCommission() bool {
	return o.IsFree || o.SubtotalCents == 0
}

// StatusTotals aggregates an event's orders in one status
type StatusTotals struct {
	Status        OrderStatus `json:"status"`
	Orders        int64       `json:"orders"`
	Tickets       int64       `json:"tickets"`
	SubtotalCents int64       `json:"subtotal_cents"`
	FeeCents      int64       `json:"fee_cents"`
	TotalCents    int64       `json:"total_cents"`
}

// OrderItem is one ticket-to-be. Price is locked when the order is created.
type OrderItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID    uuid.UUID `json:"order_id" gorm:"type:uuid;index;not null"`
	Position   int       `json:"position" gorm:"not null"`
	TierID     uuid.UUID `json:"tier_id" gorm:"type:uuid;index;not null"`
	EventID    uuid.UUID `json:"event_id" gorm:"type:uuid;not null"`
	PriceCents int64     `json:"price_cents" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// Ticket is minted 1:1 from an order item on completion and frozen once scanned.
type Ticket struct {
	ID            uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID       uuid.UUID    `json:"order_id" gorm:"type:uuid;index;not null"`
	OrderItemID   uuid.UUID    `json:"order_item_id" gorm:"type:uuid;uniqueIndex;not null"`
	EventID       uuid.UUID    `json:"event_id" gorm:"type:uuid;index;not null"`
	TierID        uuid.UUID    `json:"tier_id" gorm:"type:uuid;index;not null"`
	TicketCode    string       `json:"ticket_code" gorm:"size:32;uniqueIndex;not null"`
	HolderID      uuid.UUID    `json:"holder_id" gorm:"type:uuid;index;not null"`
	AttendeeName  string       `json:"attendee_name,omitempty" gorm:"size:255"`
	AttendeeEmail string       `json:"attendee_email,omitempty" gorm:"size:255"`
	SoldByStaffID *uuid.UUID   `json:"sold_by_staff_id,omitempty" gorm:"type:uuid"`
	PriceCents    int64        `json:"price_cents" gorm:"not null"`
	ChartID       *uuid.UUID   `json:"chart_id,omitempty" gorm:"type:uuid"`
	SectionID     string       `json:"section_id,omitempty" gorm:"size:64"`
	RowID         string       `json:"row_id,omitempty" gorm:"size:64"`
	SeatID        string       `json:"seat_id,omitempty" gorm:"size:64"`
	Status        TicketStatus `json:"status" gorm:"type:varchar(20);not null;check:status IN ('VALID', 'SCANNED', 'CANCELLED', 'REFUNDED');default:'VALID'"`
	ScannedAt     *time.Time   `json:"scanned_at,omitempty"`
	CancelledAt   *time.Time   `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// Seat returns the seat slot held by the ticket, if any
func (t *Ticket) Seat() (seats.SeatRef, bool) {
	if t.ChartID == nil || t.SeatID == "" {
		return seats.SeatRef{}, false
	}
	return seats.SeatRef{SectionID: t.SectionID, RowID: t.RowID, SeatID: t.SeatID}, true
}

type ItemRequest struct {
	TierID   uuid.UUID `json:"tier_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1,max=50"`
}

type CreateOrderRequest struct {
	EventID       uuid.UUID       `json:"event_id" validate:"required"`
	Items         []ItemRequest   `json:"items" validate:"required,min=1,dive"`
	SelectedSeats []seats.SeatRef `json:"selected_seats" validate:"omitempty,dive"`
	ReferralCode  string          `json:"referral_code" validate:"omitempty,max=32"`
	AttendeeName  string          `json:"attendee_name" validate:"omitempty,max=255"`
	AttendeeEmail string          `json:"attendee_email" validate:"omitempty,email"`
}

type CreateBundleOrderRequest struct {
	BundleID      uuid.UUID `json:"bundle_id" validate:"required"`
	Quantity      int       `json:"quantity" validate:"required,min=1,max=20"`
	ReferralCode  string    `json:"referral_code" validate:"omitempty,max=32"`
	AttendeeName  string    `json:"attendee_name" validate:"omitempty,max=255"`
	AttendeeEmail string    `json:"attendee_email" validate:"omitempty,email"`
}

type CompleteOrderRequest struct {
	PaymentID     string `json:"payment_id" validate:"required,max=255"`
	PaymentMethod string `json:"payment_method" validate:"required,max=50"`
}

type FailOrderRequest struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

type RefundOrderRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1000"`
}

type ScanTicketRequest struct {
	TicketCode string `json:"ticket_code" validate:"required,max=32"`
}
