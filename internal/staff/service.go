package staff

import (
	"context"
	"fmt"
	"strings"

	"ticketcore/internal/events"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/txn"
	"ticketcore/pkg/logger"
	"ticketcore/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const referralCodeAttempts = 5

type EventLookup interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// OrderAttribution reads and attributes stored orders. Both calls run inside the caller's transaction.
type OrderAttribution interface {
	LockOrder(ctx context.Context, orderID uuid.UUID) (*OrderFacts, error)
	AttributeOrder(ctx context.Context, orderID, staffID uuid.UUID, referralCode string) error
}

const orderStatusCompleted = "COMPLETED"

type Service interface {
	CreateStaff(ctx context.Context, actor identity.Actor, req CreateStaffRequest) (*EventStaff, error)
	GetStaff(ctx context.Context, actor identity.Actor, id uuid.UUID) (*EventStaff, error)
	ListStaff(ctx context.Context, actor identity.Actor, organizerID uuid.UUID) ([]EventStaff, error)
	DeactivateStaff(ctx context.Context, actor identity.Actor, id uuid.UUID) (*EventStaff, error)
	ListSales(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]StaffSale, error)

	// ResolveReferral fails with a Referral error when the code cannot be used for the event
	ResolveReferral(ctx context.Context, code string, eventID uuid.UUID) (*EventStaff, error)
	// RecordSale attributes a completed, unattributed order to the code's owner.
	// Resolution failures are returned, never dropped.
	RecordSale(ctx context.Context, actor identity.Actor, code string, orderID uuid.UUID) (*StaffSale, error)
	// RecordAttributedSale records a sale for staff captured when the order was created
	RecordAttributedSale(ctx context.Context, staffID uuid.UUID, in SaleInput) (*StaffSale, error)
	ReverseSale(ctx context.Context, staffID, orderID uuid.UUID) (*StaffSale, error)
	Reconcile(ctx context.Context, actor identity.Actor, staffID uuid.UUID) (*Reconciliation, error)
}

type service struct {
	repo     Repository
	txm      txn.Manager
	events   EventLookup
	orders   OrderAttribution
	log      *logger.Logger
	codeFunc func() string
}

// NewService wires the commission engine
func NewService(repo Repository, txm txn.Manager, eventLookup EventLookup, orderAttribution OrderAttribution, log *logger.Logger) Service {
	return &service{
		repo:     repo,
		txm:      txm,
		events:   eventLookup,
		orders:   orderAttribution,
		log:      log,
		codeFunc: newReferralCode,
	}
}

func newReferralCode() string {
	return "REF" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// CreateStaff adds organizer-wide or event-scoped staff with a unique referral code
func (s *service) CreateStaff(ctx context.Context, actor identity.Actor, req CreateStaffRequest) (*EventStaff, error) {
	// Event-scoped staff belong to the event's organizer
	organizerID := actor.UserID
	if req.OrganizerID != nil {
		organizerID = *req.OrganizerID
	}
	if req.EventID != nil {
		event, err := s.events.GetEvent(ctx, *req.EventID)
		if err != nil {
			return nil, err
		}
		organizerID = event.OrganizerID
	}
	if organizerID == uuid.Nil || !actor.Owns(organizerID) {
		return nil, apperr.Forbidden("staff can only be added to your own events")
	}

	// Validate commission
	if req.CommissionValue.IsNegative() {
		return nil, apperr.InvalidInput("commission_value must not be negative")
	}
	if req.CommissionType == CommissionPercentage && req.CommissionValue.GreaterThan(decimal.NewFromInt(100)) {
		return nil, apperr.InvalidInput("a percentage commission cannot exceed 100")
	}

	staff := &EventStaff{
		ID:              uuid.New(),
		OrganizerID:     organizerID,
		EventID:         req.EventID,
		Name:            req.Name,
		Email:           req.Email,
		CommissionType:  req.CommissionType,
		CommissionValue: req.CommissionValue,
		IsActive:        true,
	}

	code, err := s.referralCode(ctx, strings.ToUpper(req.ReferralCode))
	if err != nil {
		return nil, err
	}
	staff.ReferralCode = code

	if err := s.repo.Create(ctx, staff); err != nil {
		return nil, fmt.Errorf("failed to create staff: %w", err)
	}
	s.log.InfoContext(ctx, "Staff Created", "staff_id", staff.ID.String(), "referral_code", staff.ReferralCode)
	return staff, nil
}

// referralCode returns the requested code if free, or a generated one
func (s *service) referralCode(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		exists, err := s.repo.ReferralCodeExists(ctx, requested)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if exists {
			return "", apperr.InvalidInput("referral code %q is already in use", requested)
		}
		return requested, nil
	}

	// Generated codes retry on collision
	for range referralCodeAttempts {
		code := s.codeFunc()
		exists, err := s.repo.ReferralCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique referral code after %d attempts", referralCodeAttempts)
}

func (s *service) owned(ctx context.Context, actor identity.Actor, id uuid.UUID) (*EventStaff, error) {
	staff, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(staff.OrganizerID) {
		return nil, apperr.Forbidden("staff belongs to another organizer")
	}
	return staff, nil
}

func (s *service) GetStaff(ctx context.Context, actor identity.Actor, id uuid.UUID) (*EventStaff, error) {
	return s.owned(ctx, actor, id)
}

func (s *service) ListStaff(ctx context.Context, actor identity.Actor, organizerID uuid.UUID) ([]EventStaff, error) {
	if !actor.Owns(organizerID) {
		return nil, apperr.Forbidden("cannot list another organizer's staff")
	}
	staff, err := s.repo.ListByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	return staff, nil
}

func (s *service) DeactivateStaff(ctx context.Context, actor identity.Actor, id uuid.UUID) (*EventStaff, error) {
	var staff *EventStaff
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		staff, err = s.repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !actor.Owns(staff.OrganizerID) {
			return apperr.Forbidden("staff belongs to another organizer")
		}
		// Already inactive
		if !staff.IsActive {
			return nil
		}
		staff.IsActive = false
		return s.repo.Save(ctx, staff)
	})
	if err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *service) ListSales(ctx context.Context, actor identity.Actor, id uuid.UUID) ([]StaffSale, error) {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return nil, err
	}
	sales, err := s.repo.ListSales(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff sales: %w", err)
	}
	return sales, nil
}

func (s *service) ResolveReferral(ctx context.Context, code string, eventID uuid.UUID) (*EventStaff, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperr.Referral(apperr.CodeInvalidReferralCode, "referral code is empty")
	}

	// Look up the code
	staff, err := s.repo.GetByReferralCode(ctx, code)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Referral(apperr.CodeInvalidReferralCode, "referral code %q does not exist", code)
		}
		return nil, fmt.Errorf("failed to resolve referral code: %w", err)
	}
	if !staff.IsActive {
		return nil, apperr.Referral(apperr.CodeStaffInactive, "referral code %q belongs to an inactive staff member", code)
	}

	// Scope check: event-bound staff only sell their event, the rest any of the organizer's
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !staff.AppliesTo(event.ID, event.OrganizerID) {
		return nil, apperr.Referral(apperr.CodeReferralEventMismatch, "referral code %q is not valid for this event", code).
			WithDetail("event_id", eventID.String())
	}
	return staff, nil
}

func (s *service) RecordSale(ctx context.Context, actor identity.Actor, code string, orderID uuid.UUID) (*StaffSale, error) {
	var sale *StaffSale
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		// Lock the order first, same order as settlement: order, then staff
		order, err := s.orders.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != orderStatusCompleted {
			return apperr.State(apperr.CodeOrderNotCompleted, "order is %s; only completed orders earn commission", order.Status).
				WithDetail("status", order.Status)
		}

		// The event always comes from the order, never from the caller
		staff, err := s.ResolveReferral(ctx, code, order.EventID)
		if err != nil {
			return err
		}
		if !actor.Owns(staff.OrganizerID) {
			return apperr.Forbidden("cannot record sales for another organizer's staff")
		}

		if order.SoldByStaffID != nil {
			return apperr.State(apperr.CodeStaffSaleExists, "order %s is already attributed to a staff member", orderID)
		}
		recorded, err := s.repo.OrderHasSale(ctx, orderID)
		if err != nil {
			return fmt.Errorf("failed to check staff sales: %w", err)
		}
		if recorded {
			return apperr.State(apperr.CodeStaffSaleExists, "a sale is already recorded for order %s", orderID)
		}

		if err := s.orders.AttributeOrder(ctx, orderID, staff.ID, staff.ReferralCode); err != nil {
			return fmt.Errorf("failed to attribute order: %w", err)
		}
		sale, err = s.RecordAttributedSale(ctx, staff.ID, SaleInput{
			OrderID:         order.ID,
			EventID:         order.EventID,
			TicketCount:     order.TicketCount,
			SaleAmountCents: order.SubtotalCents,
			IsFree:          order.IsFree,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

func (s *service) RecordAttributedSale(ctx context.Context, staffID uuid.UUID, in SaleInput) (*StaffSale, error) {
	if in.TicketCount <= 0 {
		return nil, apperr.InvalidInput("ticket_count must be positive")
	}

	var sale *StaffSale
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		// Lock the staff row so aggregates move one sale at a time
		staff, err := s.repo.GetForUpdate(ctx, staffID)
		if err != nil {
			return err
		}

		sale = &StaffSale{
			ID:              uuid.New(),
			StaffID:         staff.ID,
			OrderID:         in.OrderID,
			Kind:            SaleKindSale,
			EventID:         in.EventID,
			TicketCount:     in.TicketCount,
			SaleAmountCents: in.SaleAmountCents,
			CommissionCents: ComputeCommission(staff, in.SaleAmountCents, in.TicketCount, in.IsFree),
		}
		// Append the row, then bump the aggregates
		if err := s.repo.CreateSale(ctx, sale); err != nil {
			return err
		}
		return s.repo.AddTotals(ctx, staff.ID, sale.TicketCount, sale.CommissionCents)
	})
	if err != nil {
		return nil, err
	}

	metrics.CommissionCents.Add(float64(sale.CommissionCents))
	s.log.LogStaffSaleRecorded(ctx, staffID.String(), in.OrderID.String(), sale.TicketCount, sale.CommissionCents)
	return sale, nil
}

// ReverseSale appends a negating REVERSAL row. Calling it twice returns the first reversal;
// an order without a sale yields nil.
func (s *service) ReverseSale(ctx context.Context, staffID, orderID uuid.UUID) (*StaffSale, error) {
	var reversal *StaffSale
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		if _, err := s.repo.GetForUpdate(ctx, staffID); err != nil {
			return err
		}

		// Already reversed
		existing, err := s.repo.FindSale(ctx, staffID, orderID, SaleKindReversal)
		if err != nil {
			return err
		}
		if existing != nil {
			reversal = existing
			return nil
		}

		sale, err := s.repo.FindSale(ctx, staffID, orderID, SaleKindSale)
		if err != nil {
			return err
		}
		if sale == nil {
			return nil
		}

		reversal = &StaffSale{
			ID:              uuid.New(),
			StaffID:         staffID,
			OrderID:         orderID,
			Kind:            SaleKindReversal,
			EventID:         sale.EventID,
			TicketCount:     -sale.TicketCount,
			SaleAmountCents: -sale.SaleAmountCents,
			CommissionCents: -sale.CommissionCents,
		}
		if err := s.repo.CreateSale(ctx, reversal); err != nil {
			return err
		}
		return s.repo.AddTotals(ctx, staffID, reversal.TicketCount, reversal.CommissionCents)
	})
	if err != nil {
		return nil, err
	}
	if reversal != nil {
		s.log.LogStaffSaleRecorded(ctx, staffID.String(), orderID.String(), reversal.TicketCount, reversal.CommissionCents)
	}
	return reversal, nil
}

// Reconcile recomputes the staff aggregates from the sales rows and repairs drift
func (s *service) Reconcile(ctx context.Context, actor identity.Actor, staffID uuid.UUID) (*Reconciliation, error) {
	var result *Reconciliation
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		staff, err := s.repo.GetForUpdate(ctx, staffID)
		if err != nil {
			return err
		}
		if !actor.Owns(staff.OrganizerID) {
			return apperr.Forbidden("staff belongs to another organizer")
		}
		sales, err := s.repo.ListSales(ctx, staffID)
		if err != nil {
			return fmt.Errorf("failed to list staff sales: %w", err)
		}

		result = &Reconciliation{
			StaffID:               staffID,
			StoredTicketsSold:     staff.TicketsSold,
			StoredCommissionCents: staff.CommissionEarnedCents,
		}
		// Sum the ledger
		for _, sale := range sales {
			result.DerivedTicketsSold += sale.TicketCount
			result.DerivedCommissionCents += sale.CommissionCents
		}
		result.Drifted = result.DerivedTicketsSold != staff.TicketsSold ||
			result.DerivedCommissionCents != staff.CommissionEarnedCents
		if !result.Drifted {
			return nil
		}

		s.log.WarnContext(ctx, "Staff aggregates drifted from sales",
			"staff_id", staffID.String(),
			"stored_tickets", staff.TicketsSold,
			"derived_tickets", result.DerivedTicketsSold,
			"stored_commission_cents", staff.CommissionEarnedCents,
			"derived_commission_cents", result.DerivedCommissionCents,
		)
		staff.TicketsSold = result.DerivedTicketsSold
		staff.CommissionEarnedCents = result.DerivedCommissionCents
		return s.repo.Save(ctx, staff)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
