package credits

import (
	"time"

	"github.com/google/uuid"
)

// OrganizerCredits is the prepaid capacity balance of one organizer.
// CreditsTotal == CreditsUsed + CreditsRemaining at all times.
type OrganizerCredits struct {
	OrganizerID      uuid.UUID `json:"organizer_id" gorm:"type:uuid;primaryKey"`
	CreditsTotal     int       `json:"credits_total" gorm:"not null;default:0;check:credits_total >= 0"`
	CreditsUsed      int       `json:"credits_used" gorm:"not null;default:0;check:credits_used >= 0"`
	CreditsRemaining int       `json:"credits_remaining" gorm:"not null;default:0;check:credits_remaining >= 0"`

	// One-time free allocation, bound to the first event that is sized with credits
	FirstEventFreeUsed   bool       `json:"first_event_free_used" gorm:"not null;default:false"`
	FirstEventID         *uuid.UUID `json:"first_event_id,omitempty" gorm:"type:uuid"`
	FreeCreditsGranted   int        `json:"free_credits_granted" gorm:"not null;default:0"`
	FreeCreditsRemaining int        `json:"free_credits_remaining" gorm:"not null;default:0;check:free_credits_remaining >= 0"`
	// Purchased credits consumed by the first event, returned before free ones on shrink
	FirstEventPaidUsed int `json:"-" gorm:"not null;default:0"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (OrganizerCredits) TableName() string {
	return "organizer_credits"
}

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// CreditTransaction is a credit purchase gated by an external payment confirmation
type CreditTransaction struct {
	ID            uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizerID   uuid.UUID         `json:"organizer_id" gorm:"type:uuid;index;not null"`
	Credits       int               `json:"credits" gorm:"not null;check:credits > 0"`
	AmountCents   int64             `json:"amount_cents" gorm:"not null"`
	Status        TransactionStatus `json:"status" gorm:"type:varchar(20);not null;check:status IN ('PENDING', 'COMPLETED', 'FAILED');default:'PENDING'"`
	PaymentID     string            `json:"payment_id,omitempty" gorm:"size:255"`
	FailureReason string            `json:"failure_reason,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (CreditTransaction) TableName() string {
	return "credit_transactions"
}

// CreditAllocation is the audit trail of capacity consumed or returned
type CreditAllocation struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	OrganizerID uuid.UUID  `json:"organizer_id" gorm:"type:uuid;index;not null"`
	EventID     uuid.UUID  `json:"event_id" gorm:"type:uuid;index;not null"`
	TierID      *uuid.UUID `json:"tier_id,omitempty" gorm:"type:uuid"`
	// Delta is negative for consumption and positive for refunds
	Delta     int       `json:"delta" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (CreditAllocation) TableName() string {
	return "credit_allocations"
}

// AllocationRequest identifies who consumes or returns capacity credits
type AllocationRequest struct {
	OrganizerID uuid.UUID
	EventID     uuid.UUID
	TierID      *uuid.UUID
	Quantity    int
}

type PurchaseRequest struct {
	Credits int `json:"credits" validate:"required,min=1,max=1000000"`
}

type FailPurchaseRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type ConfirmPurchaseRequest struct {
	PaymentID string `json:"payment_id" validate:"required,max=255"`
}

func (c *OrganizerCredits) isFirstEvent(eventID uuid.UUID) bool {
	return c.FirstEventID != nil && *c.FirstEventID == eventID
}

// bindFirstEvent grants the free allocation the first time any event asks for capacity.
func (c *OrganizerCredits) bindFirstEvent(eventID uuid.UUID, free int) bool {
	if c.FirstEventFreeUsed {
		return false
	}
	c.FirstEventFreeUsed = true
	c.FirstEventID = &eventID
	c.FreeCreditsGranted = free
	c.FreeCreditsRemaining = free
	c.CreditsTotal += free
	c.CreditsRemaining += free
	return true
}

// PaidRemaining is the purchased balance usable on any event
func (c *OrganizerCredits) PaidRemaining() int {
	return c.CreditsRemaining - c.FreeCreditsRemaining
}

// Available returns how many credits an allocation on eventID may draw.
func (c *OrganizerCredits) Available(eventID uuid.UUID) int {
	if c.isFirstEvent(eventID) {
		return c.CreditsRemaining
	}
	return c.PaidRemaining()
}

func (c *OrganizerCredits) deduct(eventID uuid.UUID, quantity int) {
	if c.isFirstEvent(eventID) {
		fromFree := min(quantity, c.FreeCreditsRemaining)
		c.FreeCreditsRemaining -= fromFree
		c.FirstEventPaidUsed += quantity - fromFree
	}
	c.CreditsRemaining -= quantity
	c.CreditsUsed += quantity
}

// refund returns up to quantity credits and reports how many were returned.
func (c *OrganizerCredits) refund(eventID uuid.UUID, quantity int) int {
	if quantity > c.CreditsUsed {
		quantity = c.CreditsUsed
	}
	if c.isFirstEvent(eventID) {
		toPaid := min(quantity, c.FirstEventPaidUsed)
		c.FirstEventPaidUsed -= toPaid
		toFree := min(quantity-toPaid, c.FreeCreditsGranted-c.FreeCreditsRemaining)
		c.FreeCreditsRemaining += toFree
	}
	c.CreditsRemaining += quantity
	c.CreditsUsed -= quantity
	return quantity
}

func (c *OrganizerCredits) addPurchased(credits int) {
	c.CreditsTotal += credits
	c.CreditsRemaining += credits
}
