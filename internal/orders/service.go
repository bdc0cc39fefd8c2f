package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"ticketcore/internal/bundles"
	"ticketcore/internal/events"
	"ticketcore/internal/notifications"
	"ticketcore/internal/seats"
	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/config"
	"ticketcore/internal/shared/constants"
	"ticketcore/internal/shared/identity"
	"ticketcore/internal/shared/txn"
	"ticketcore/internal/staff"
	"ticketcore/internal/tiers"
	"ticketcore/pkg/lock"
	"ticketcore/pkg/logger"
	"ticketcore/pkg/metrics"

	"github.com/google/uuid"
)

type EventLookup interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*events.Event, error)
}

// TierLedger is the only path through which tier sold counters move
type TierLedger interface {
	GetTiers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]tiers.TicketTier, error)
	IncrementSold(ctx context.Context, tierID uuid.UUID, n int) error
	DecrementSold(ctx context.Context, tierID uuid.UUID, n int) error
	InvalidateAvailability(ctx context.Context, eventIDs ...uuid.UUID)
}

type SeatLedger interface {
	GetChartByEvent(ctx context.Context, eventID uuid.UUID) (*seats.SeatingChart, error)
	CheckSeatsFree(ctx context.Context, chartID uuid.UUID, refs []seats.SeatRef) error
	ReserveSeats(ctx context.Context, chartID, ticketID, orderID uuid.UUID, refs []seats.SeatRef) error
	ReleaseSeats(ctx context.Context, ticketID uuid.UUID) (int, error)
	CancelOrderSeats(ctx context.Context, orderID uuid.UUID) (int, error)
}

type BundleLedger interface {
	GetBundle(ctx context.Context, id uuid.UUID) (*bundles.BundleView, error)
	IsBundleAvailable(ctx context.Context, id uuid.UUID, qty int) (*bundles.Availability, error)
	IncrementSold(ctx context.Context, id uuid.UUID, n int) error
	DecrementSold(ctx context.Context, id uuid.UUID, n int) error
}

type CommissionEngine interface {
	ResolveReferral(ctx context.Context, code string, eventID uuid.UUID) (*staff.EventStaff, error)
	RecordAttributedSale(ctx context.Context, staffID uuid.UUID, in staff.SaleInput) (*staff.StaffSale, error)
	ReverseSale(ctx context.Context, staffID, orderID uuid.UUID) (*staff.StaffSale, error)
}

// CompletionLocker short-circuits duplicate webhook deliveries. Correctness never depends on it.
type CompletionLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (lock.Unlock, bool, error)
}

type Service interface {
	CreateOrder(ctx context.Context, actor identity.Actor, req CreateOrderRequest) (*Order, error)
	CreateBundleOrder(ctx context.Context, actor identity.Actor, req CreateBundleOrderRequest) (*Order, error)
	// RegisterFree creates and immediately completes an order whose subtotal is zero
	RegisterFree(ctx context.Context, actor identity.Actor, req CreateOrderRequest) (*Order, error)

	// CompleteOrder settles a paid order in one transaction. Completing an already
	// completed order returns it unchanged.
	CompleteOrder(ctx context.Context, orderID uuid.UUID, paymentID, paymentMethod string) (*Order, error)
	FailOrder(ctx context.Context, orderID uuid.UUID, reason string) (*Order, error)
	CancelOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*Order, error)
	RefundOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID, reason string) (*Order, error)

	CancelTicket(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*Ticket, error)
	ScanTicket(ctx context.Context, actor identity.Actor, code string) (*Ticket, error)

	GetOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*Order, error)
	ListMyOrders(ctx context.Context, actor identity.Actor) ([]Order, error)
	ListOrderTickets(ctx context.Context, actor identity.Actor, orderID uuid.UUID) ([]Ticket, error)

	// ExpireStalePending cancels PENDING orders older than the configured TTL
	ExpireStalePending(ctx context.Context) (int, error)
}

// Dependencies groups the collaborators of the order service. Locker and Publisher may be nil.
type Dependencies struct {
	Repo      Repository
	Tx        txn.Manager
	Events    EventLookup
	Tiers     TierLedger
	Seats     SeatLedger
	Bundles   BundleLedger
	Staff     CommissionEngine
	Locker    CompletionLocker
	Publisher notifications.Publisher
	Fees      config.FeeConfig
	Config    config.OrderConfig
	Log       *logger.Logger
}

type service struct {
	repo      Repository
	txm       txn.Manager
	events    EventLookup
	tiers     TierLedger
	seats     SeatLedger
	bundles   BundleLedger
	staff     CommissionEngine
	locker    CompletionLocker
	publisher notifications.Publisher
	fees      config.FeeConfig
	cfg       config.OrderConfig
	log       *logger.Logger

	now   func() time.Time
	codes CodeGenerator
}

func NewService(deps Dependencies) Service {
	cfg := deps.Config
	if cfg.TicketCodeAttempts <= 0 {
		cfg.TicketCodeAttempts = 5
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 100
	}
	return &service{
		repo:      deps.Repo,
		txm:       deps.Tx,
		events:    deps.Events,
		tiers:     deps.Tiers,
		seats:     deps.Seats,
		bundles:   deps.Bundles,
		staff:     deps.Staff,
		locker:    deps.Locker,
		publisher: deps.Publisher,
		fees:      deps.Fees,
		cfg:       cfg,
		log:       deps.Log,
		now:       time.Now,
		codes:     NewTicketCode,
	}
}

// ================== CHECKOUT ==================

func (s *service) CreateOrder(ctx context.Context, actor identity.Actor, req CreateOrderRequest) (*Order, error) {
	order, err := s.buildOrder(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, order)
}

func (s *service) RegisterFree(ctx context.Context, actor identity.Actor, req CreateOrderRequest) (*Order, error) {
	order, err := s.buildOrder(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	if order.SubtotalCents != 0 {
		return nil, apperr.InvalidInput("free registration is only available when every selected tier is free")
	}
	order.IsFree = true
	if _, err := s.persist(ctx, order); err != nil {
		return nil, err
	}
	return s.CompleteOrder(ctx, order.ID, "free-"+order.ID.String(), "free")
}

func (s *service) buildOrder(ctx context.Context, actor identity.Actor, req CreateOrderRequest) (*Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, apperr.Forbidden("orders require an authenticated buyer")
	}

	event, err := s.onSaleEvent(ctx, req.EventID)
	if err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, apperr.InvalidInput("an order needs at least one item")
	}

	// Per-tier totals only feed the purchasable check; items keep the request order
	quantities := make(map[uuid.UUID]int, len(req.Items))
	var tierOrder []uuid.UUID
	total := 0
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, apperr.InvalidInput("item quantity must be positive")
		}
		if _, seen := quantities[item.TierID]; !seen {
			tierOrder = append(tierOrder, item.TierID)
		}
		quantities[item.TierID] += item.Quantity
		total += item.Quantity
	}

	// Load and check every tier the order touches
	stock, err := s.tiers.GetTiers(ctx, tierOrder)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for _, tierID := range tierOrder {
		tier, ok := stock[tierID]
		if !ok {
			return nil, apperr.NotFound("tier", tierID)
		}
		if tier.EventID != event.ID {
			return nil, apperr.InvalidInput("tier %q does not belong to this event", tier.Name)
		}
		if err := tiers.CheckPurchasable(&tier, quantities[tierID], now); err != nil {
			return nil, err
		}
	}

	order := s.newOrder(actor, event, req.AttendeeName, req.AttendeeEmail)

	// Seated events: one seat per ticket
	if len(req.SelectedSeats) > 0 {
		if len(req.SelectedSeats) != total {
			return nil, apperr.Validation(apperr.CodeSeatCountMismatch,
				"%d seats selected for %d tickets", len(req.SelectedSeats), total).
				WithDetail("seats", len(req.SelectedSeats)).
				WithDetail("tickets", total)
		}
		chart, err := s.seats.GetChartByEvent(ctx, event.ID)
		if err != nil {
			if apperr.IsKind(err, apperr.KindNotFound) {
				return nil, apperr.InvalidInput("event has no seating chart")
			}
			return nil, err
		}
		// Non-binding: the seat can still be lost before completion
		if err := s.seats.CheckSeatsFree(ctx, chart.ID, req.SelectedSeats); err != nil {
			return nil, err
		}
		order.ChartID = &chart.ID
		order.SelectedSeats = req.SelectedSeats
	}

	// Selected seats bind to items by position, so items follow the request exactly
	for _, line := range req.Items {
		tier := stock[line.TierID]
		for range line.Quantity {
			order.Items = append(order.Items, OrderItem{
				ID:         uuid.New(),
				OrderID:    order.ID,
				Position:   len(order.Items),
				TierID:     tier.ID,
				EventID:    tier.EventID,
				PriceCents: tier.PriceCents,
			})
		}
	}

	s.attachReferral(ctx, order, req.ReferralCode)
	s.price(order)
	return order, nil
}

func (s *service) CreateBundleOrder(ctx context.Context, actor identity.Actor, req CreateBundleOrderRequest) (*Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, apperr.Forbidden("orders require an authenticated buyer")
	}
	if req.Quantity <= 0 {
		return nil, apperr.InvalidInput("bundle quantity must be positive")
	}

	// Bundle stock and window, plus every included tier
	availability, err := s.bundles.IsBundleAvailable(ctx, req.BundleID, req.Quantity)
	if err != nil {
		return nil, err
	}
	if err := availability.Err(); err != nil {
		return nil, err
	}
	view, err := s.bundles.GetBundle(ctx, req.BundleID)
	if err != nil {
		return nil, err
	}
	bundle := &view.TicketBundle

	eventIDs := bundle.Events()
	if len(eventIDs) == 0 {
		return nil, apperr.InvalidInput("bundle has no events")
	}
	// Every bundled event must be on sale; the first one anchors the order
	allFree := true
	var first *events.Event
	for _, eventID := range eventIDs {
		event, err := s.onSaleEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = event
		}
		allFree = allFree && event.IsFree
	}

	stock, err := s.tiers.GetTiers(ctx, bundle.TierIDs())
	if err != nil {
		return nil, err
	}

	order := s.newOrder(actor, first, req.AttendeeName, req.AttendeeEmail)
	order.IsFree = allFree
	order.BundleID = &bundle.ID
	order.BundleQuantity = req.Quantity

	// Fan out to one item per ticket, then split the bundle price by regular price
	var weights []int64
	for _, units := range bundles.Expand(bundle, req.Quantity) {
		tier, ok := stock[units.TierID]
		if !ok {
			return nil, apperr.NotFound("tier", units.TierID)
		}
		for range units.Quantity {
			order.Items = append(order.Items, OrderItem{
				ID:       uuid.New(),
				OrderID:  order.ID,
				Position: len(order.Items),
				TierID:   tier.ID,
				EventID:  tier.EventID,
			})
			weights = append(weights, tier.PriceCents)
		}
	}
	for i, price := range AllocatePrice(bundle.PriceCents*int64(req.Quantity), weights) {
		order.Items[i].PriceCents = price
	}

	s.attachReferral(ctx, order, req.ReferralCode)
	s.price(order)
	return s.persist(ctx, order)
}

// onSaleEvent loads an event that is currently selling
func (s *service) onSaleEvent(ctx context.Context, eventID uuid.UUID) (*events.Event, error) {
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.Status.IsOnSale() {
		return nil, apperr.State(apperr.CodeEventNotOnSale, "event %q is not on sale", event.Name).
			WithDetail("status", string(event.Status))
	}
	return event, nil
}

func (s *service) newOrder(actor identity.Actor, event *events.Event, attendeeName, attendeeEmail string) *Order {
	return &Order{
		ID:            uuid.New(),
		BuyerID:       actor.UserID,
		EventID:       event.ID,
		Status:        OrderPending,
		IsFree:        event.IsFree,
		Currency:      s.fees.Currency,
		AttendeeName:  attendeeName,
		AttendeeEmail: attendeeEmail,
	}
}

// attachReferral records the staff attribution. An unusable code is dropped, never an error.
func (s *service) attachReferral(ctx context.Context, order *Order, code string) {
	if code == "" {
		return
	}
	member, err := s.staff.ResolveReferral(ctx, code, order.EventID)
	if err != nil {
		s.log.WarnContext(ctx, "Referral code dropped",
			"order_id", order.ID.String(),
			"referral_code", code,
			"error", err.Error(),
		)
		return
	}
	order.SoldByStaffID = &member.ID
	order.ReferralCode = member.ReferralCode
}

// price fills the totals from the items' locked prices
func (s *service) price(order *Order) {
	var subtotal int64
	for _, item := range order.Items {
		subtotal += item.PriceCents
	}
	quote := ComputeFees(s.fees, subtotal, len(order.Items))
	order.TicketCount = len(order.Items)
	order.SubtotalCents = quote.SubtotalCents
	order.PlatformFeeCents = quote.PlatformFeeCents
	order.ProcessingFeeCents = quote.ProcessingFeeCents
	order.TotalCents = quote.TotalCents
}

func (s *service) persist(ctx context.Context, order *Order) (*Order, error) {
	if order.Currency == "" {
		order.Currency = "USD"
	}
	if err := s.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	metrics.OrderTransitions.WithLabelValues(string(OrderPending)).Inc()
	s.log.LogOrderCreated(ctx, order.ID.String(), order.EventID.String(), order.BuyerID.String(), order.TotalCents)
	return order, nil
}

// ================== SETTLEMENT ==================

func (s *service) CompleteOrder(ctx context.Context, orderID uuid.UUID, paymentID, paymentMethod string) (*Order, error) {
	defer metrics.ObserveCompletion(time.Now())

	// Redis lock first: a concurrent completion gets a quick 409 instead of waiting on the row
	if s.locker != nil {
		unlock, acquired, err := s.locker.TryLock(ctx, constants.BuildOrderCompletionLockKey(orderID.String()), s.cfg.CompletionLockTTL)
		switch {
		case err != nil:
			s.log.WarnContext(ctx, "Completion lock unavailable, relying on row lock", "order_id", orderID.String(), "error", err.Error())
		case !acquired:
			return nil, apperr.Conflict(apperr.CodeCompletionInProgress, "order %s is already being completed", orderID)
		default:
			defer func() {
				if err := unlock(context.WithoutCancel(ctx)); err != nil {
					s.log.WarnContext(ctx, "Completion lock release failed", "order_id", orderID.String(), "error", err.Error())
				}
			}()
		}
	}

	// Row lock on the order; a completed order is a replay
	var order *Order
	var minted []Ticket
	replay := false
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case OrderCompleted:
			replay = true
			return nil
		case OrderPending:
		default:
			return apperr.State(apperr.CodeOrderNotPending, "order is %s and cannot be completed", order.Status).
				WithDetail("status", string(order.Status))
		}

		minted, err = s.settle(ctx, order, paymentID, paymentMethod)
		return err
	})
	if err != nil {
		return nil, s.completionFailed(ctx, orderID, paymentID, err)
	}

	// Record metrics
	kind := "tier"
	switch {
	case order.BundleID != nil:
		kind = "bundle"
	case order.SubtotalCents == 0:
		kind = "free"
	}
	metrics.OrdersCompleted.WithLabelValues(kind, fmt.Sprint(replay)).Inc()

	if replay {
		if order.PaymentID != paymentID {
			s.log.WarnContext(ctx, "Duplicate completion with a different payment id",
				"order_id", orderID.String(),
				"payment_id", order.PaymentID,
				"replayed_payment_id", paymentID,
			)
		}
		s.log.LogOrderCompleted(ctx, orderID.String(), order.PaymentID, order.TicketCount, true)
		return order, nil
	}

	// Side effects after commit
	metrics.TicketsMinted.Add(float64(len(minted)))
	s.tiers.InvalidateAvailability(ctx, orderEvents(order)...)
	s.log.LogOrderCompleted(ctx, orderID.String(), paymentID, len(minted), false)
	notifications.PublishAsync(ctx, s.publisher, s.log,
		notifications.NewEventBuilder(notifications.EventOrderCompleted).
			WithOrder(order.ID).
			WithEvent(order.EventID).
			WithActor(order.BuyerID).
			With("tickets", len(minted)).
			With("total_cents", order.TotalCents).
			With("payment_id", paymentID).
			Build())
	return order, nil
}

// settle runs inside the completion transaction. Lock order: order, chart, tiers by id, bundle, staff.
func (s *service) settle(ctx context.Context, order *Order, paymentID, paymentMethod string) ([]Ticket, error) {
	now := s.now()
	order.Status = OrderCompleted
	order.PaymentID = paymentID
	order.PaymentMethod = paymentMethod
	order.FailureReason = ""
	order.CompletedAt = &now

	items := order.Items
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })

	// Mint one ticket per item, seats by position
	tickets := make([]Ticket, 0, len(items))
	issued := make(map[string]struct{}, len(items))
	for i, item := range items {
		code, err := s.uniqueCode(ctx, now, issued)
		if err != nil {
			return nil, err
		}
		ticket := Ticket{
			ID:            uuid.New(),
			OrderID:       order.ID,
			OrderItemID:   item.ID,
			EventID:       item.EventID,
			TierID:        item.TierID,
			TicketCode:    code,
			HolderID:      order.BuyerID,
			AttendeeName:  order.AttendeeName,
			AttendeeEmail: order.AttendeeEmail,
			SoldByStaffID: order.SoldByStaffID,
			PriceCents:    item.PriceCents,
			Status:        TicketValid,
		}
		if order.ChartID != nil && i < len(order.SelectedSeats) {
			seat := order.SelectedSeats[i]
			ticket.ChartID = order.ChartID
			ticket.SectionID = seat.SectionID
			ticket.RowID = seat.RowID
			ticket.SeatID = seat.SeatID
		}
		tickets = append(tickets, ticket)
	}
	if err := s.repo.CreateTickets(ctx, tickets); err != nil {
		return nil, fmt.Errorf("failed to mint tickets: %w", err)
	}

	// Bind seats; a taken seat aborts the whole completion
	for i := range tickets {
		seat, ok := tickets[i].Seat()
		if !ok {
			continue
		}
		if err := s.seats.ReserveSeats(ctx, *tickets[i].ChartID, tickets[i].ID, order.ID, []seats.SeatRef{seat}); err != nil {
			return nil, seatConflict(err, seat)
		}
	}

	// Tier counters in id order
	perTier := make(map[uuid.UUID]int)
	for _, ticket := range tickets {
		perTier[ticket.TierID]++
	}
	for _, tierID := range sortedIDs(perTier) {
		if err := s.tiers.IncrementSold(ctx, tierID, perTier[tierID]); err != nil {
			return nil, err
		}
	}

	if order.BundleID != nil {
		if err := s.bundles.IncrementSold(ctx, *order.BundleID, order.BundleQuantity); err != nil {
			return nil, err
		}
	}

	// Commission for the referring staff member
	if order.SoldByStaffID != nil {
		_, err := s.staff.RecordAttributedSale(ctx, *order.SoldByStaffID, staff.SaleInput{
			OrderID:         order.ID,
			EventID:         order.EventID,
			TicketCount:     len(tickets),
			SaleAmountCents: order.SubtotalCents,
			IsFree:          order.PaysNoCommission(),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record staff sale: %w", err)
		}
	}

	if err := s.repo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}
	return tickets, nil
}

func (s *service) uniqueCode(ctx context.Context, now time.Time, issued map[string]struct{}) (string, error) {
	for range s.cfg.TicketCodeAttempts {
		code := s.codes(now)
		if _, dup := issued[code]; dup {
			continue
		}
		exists, err := s.repo.TicketCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check ticket code: %w", err)
		}
		if !exists {
			issued[code] = struct{}{}
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate a unique ticket code after %d attempts", s.cfg.TicketCodeAttempts)
}

// seatConflict turns a lost seat race at completion into SeatConflict
func seatConflict(err error, seat seats.SeatRef) error {
	if !errors.Is(err, apperr.ErrSeatAlreadyReserved) {
		return err
	}
	return apperr.Conflict(apperr.CodeSeatConflict, "seat %s was taken before payment completed", seat).
		WithDetail("seat", seat.String())
}

// completionFailed marks the order FAILED in its own transaction when the
// settlement was rejected by inventory, then returns the original error.
func (s *service) completionFailed(ctx context.Context, orderID uuid.UUID, paymentID string, cause error) error {
	code := "internal"
	if appErr, ok := apperr.As(cause); ok {
		code = string(appErr.Code)
	}
	metrics.CompletionFailures.WithLabelValues(code).Inc()

	// Only lost races fail the order; anything else leaves it PENDING for a retry
	if !apperr.IsKind(cause, apperr.KindConflict) && !apperr.IsKind(cause, apperr.KindCapacityExceeded) {
		return cause
	}
	var order *Order
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != OrderPending {
			order = nil
			return nil
		}
		order.Status = OrderFailed
		order.PaymentID = paymentID
		order.FailureReason = cause.Error()
		return s.repo.Save(ctx, order)
	})
	if err != nil {
		s.log.ErrorWithContext(ctx, "Failed to mark order FAILED", err, map[string]interface{}{
			"order_id": orderID.String(),
		})
		return cause
	}
	if order != nil {
		metrics.OrderTransitions.WithLabelValues(string(OrderFailed)).Inc()
		s.log.LogOrderCancelled(ctx, orderID.String(), string(OrderFailed), order.FailureReason)
		notifications.PublishAsync(ctx, s.publisher, s.log,
			notifications.NewEventBuilder(notifications.EventOrderFailed).
				WithOrder(order.ID).
				WithEvent(order.EventID).
				WithActor(order.BuyerID).
				With("reason", order.FailureReason).
				With("payment_id", paymentID).
				Build())
	}
	return cause
}

// FailOrder marks a PENDING order FAILED. Failing it again is a no-op.
func (s *service) FailOrder(ctx context.Context, orderID uuid.UUID, reason string) (*Order, error) {
	var order *Order
	changed := false
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		switch order.Status {
		case OrderFailed:
			return nil
		case OrderPending:
		default:
			return apperr.State(apperr.CodeOrderNotPending, "order is %s and cannot fail", order.Status)
		}
		order.Status = OrderFailed
		order.FailureReason = reason
		changed = true
		return s.repo.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		s.afterTransition(ctx, order, notifications.EventOrderFailed, reason)
	}
	return order, nil
}

// CancelOrder lets the buyer abandon a PENDING order so a late payment cannot complete it
func (s *service) CancelOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*Order, error) {
	var order *Order
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.Owns(order.BuyerID) {
			return apperr.Forbidden("only the buyer can cancel this order")
		}
		if !order.Status.CanBeCancelled() {
			return apperr.State(apperr.CodeOrderNotPending, "order is %s and cannot be cancelled", order.Status).
				WithDetail("status", string(order.Status))
		}
		now := s.now()
		order.Status = OrderCancelled
		order.CancelledAt = &now
		return s.repo.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	s.afterTransition(ctx, order, notifications.EventOrderCancelled, "cancelled by buyer")
	return order, nil
}

// RefundOrder reverses a completed order: tickets, seats, tier and bundle counters, commission
func (s *service) RefundOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID, reason string) (*Order, error) {
	var order *Order
	refunded := 0
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := s.authorizeOrganizer(ctx, actor, order.EventID); err != nil {
			return err
		}
		if order.Status != OrderCompleted {
			return apperr.State(apperr.CodeOrderNotCompleted, "order is %s and cannot be refunded", order.Status).
				WithDetail("status", string(order.Status))
		}

		// A scanned ticket blocks the whole refund
		tickets, err := s.repo.ListTicketsByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("failed to list tickets: %w", err)
		}
		for _, ticket := range tickets {
			if ticket.Status == TicketScanned {
				return apperr.State(apperr.CodeTicketAlreadyScanned, "ticket %s was already scanned", ticket.TicketCode).
					WithDetail("ticket_code", ticket.TicketCode)
			}
		}

		// Refund the still-valid tickets; individually cancelled ones were already released
		now := s.now()
		perTier := make(map[uuid.UUID]int)
		for i := range tickets {
			if tickets[i].Status != TicketValid {
				continue
			}
			tickets[i].Status = TicketRefunded
			tickets[i].CancelledAt = &now
			if err := s.repo.SaveTicket(ctx, &tickets[i]); err != nil {
				return fmt.Errorf("failed to refund ticket: %w", err)
			}
			perTier[tickets[i].TierID]++
			refunded++
		}

		// Release capacity in settlement lock order
		if _, err := s.seats.CancelOrderSeats(ctx, order.ID); err != nil {
			return err
		}
		for _, tierID := range sortedIDs(perTier) {
			if err := s.tiers.DecrementSold(ctx, tierID, perTier[tierID]); err != nil {
				return err
			}
		}
		if order.BundleID != nil {
			if err := s.bundles.DecrementSold(ctx, *order.BundleID, order.BundleQuantity); err != nil {
				return err
			}
		}
		if order.SoldByStaffID != nil {
			if _, err := s.staff.ReverseSale(ctx, *order.SoldByStaffID, order.ID); err != nil {
				return fmt.Errorf("failed to reverse staff sale: %w", err)
			}
		}

		order.Status = OrderRefunded
		order.FailureReason = reason
		order.CancelledAt = &now
		return s.repo.Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.TicketsReversed.WithLabelValues(string(TicketRefunded)).Add(float64(refunded))
	s.tiers.InvalidateAvailability(ctx, orderEvents(order)...)
	s.afterTransition(ctx, order, notifications.EventOrderRefunded, reason)
	return order, nil
}

func (s *service) afterTransition(ctx context.Context, order *Order, eventType notifications.EventType, reason string) {
	metrics.OrderTransitions.WithLabelValues(string(order.Status)).Inc()
	s.log.LogOrderCancelled(ctx, order.ID.String(), string(order.Status), reason)
	notifications.PublishAsync(ctx, s.publisher, s.log,
		notifications.NewEventBuilder(eventType).
			WithOrder(order.ID).
			WithEvent(order.EventID).
			WithActor(order.BuyerID).
			With("reason", reason).
			Build())
}

// ================== TICKETS ==================

// CancelTicket cancels one valid ticket, returning its seat and tier capacity. The holder
// or the event organizer may cancel.
func (s *service) CancelTicket(ctx context.Context, actor identity.Actor, ticketID uuid.UUID) (*Ticket, error) {
	var ticket *Ticket
	released := 0
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.repo.GetTicketForUpdate(ctx, ticketID)
		if err != nil {
			return err
		}
		if !actor.Owns(ticket.HolderID) {
			if err := s.authorizeOrganizer(ctx, actor, ticket.EventID); err != nil {
				return err
			}
		}
		if err := cancellable(ticket); err != nil {
			return err
		}

		now := s.now()
		ticket.Status = TicketCancelled
		ticket.CancelledAt = &now
		if err := s.repo.SaveTicket(ctx, ticket); err != nil {
			return fmt.Errorf("failed to cancel ticket: %w", err)
		}

		// Give back the seat and the tier slot
		released, err = s.seats.ReleaseSeats(ctx, ticket.ID)
		if err != nil {
			return err
		}
		return s.tiers.DecrementSold(ctx, ticket.TierID, 1)
	})
	if err != nil {
		return nil, err
	}

	metrics.TicketsReversed.WithLabelValues(string(TicketCancelled)).Inc()
	s.tiers.InvalidateAvailability(ctx, ticket.EventID)
	s.log.LogTicketCancelled(ctx, ticket.ID.String(), ticket.TierID.String(), released)
	notifications.PublishAsync(ctx, s.publisher, s.log,
		notifications.NewEventBuilder(notifications.EventTicketCancelled).
			WithOrder(ticket.OrderID).
			WithEvent(ticket.EventID).
			WithActor(actor.UserID).
			With("ticket_id", ticket.ID.String()).
			With("seats_released", released).
			Build())
	return ticket, nil
}

func cancellable(ticket *Ticket) error {
	switch ticket.Status {
	case TicketValid:
		return nil
	case TicketScanned:
		return apperr.State(apperr.CodeTicketAlreadyScanned, "ticket %s was already scanned", ticket.TicketCode).
			WithDetail("ticket_code", ticket.TicketCode)
	default:
		return apperr.State(apperr.CodeTicketNotActive, "ticket %s is %s", ticket.TicketCode, ticket.Status).
			WithDetail("status", string(ticket.Status))
	}
}

// ScanTicket checks a ticket in at the door; scanned tickets can no longer be cancelled or refunded
func (s *service) ScanTicket(ctx context.Context, actor identity.Actor, code string) (*Ticket, error) {
	var ticket *Ticket
	err := s.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.repo.GetTicketByCodeForUpdate(ctx, code)
		if err != nil {
			return err
		}
		if err := s.authorizeOrganizer(ctx, actor, ticket.EventID); err != nil {
			return err
		}
		if err := cancellable(ticket); err != nil {
			return err
		}
		now := s.now()
		ticket.Status = TicketScanned
		ticket.ScannedAt = &now
		return s.repo.SaveTicket(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "Ticket Scanned", "ticket_id", ticket.ID.String(), "event_id", ticket.EventID.String())
	return ticket, nil
}

// ================== READS ==================

func (s *service) GetOrder(ctx context.Context, actor identity.Actor, orderID uuid.UUID) (*Order, error) {
	order, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(order.BuyerID) {
		if err := s.authorizeOrganizer(ctx, actor, order.EventID); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (s *service) ListMyOrders(ctx context.Context, actor identity.Actor) ([]Order, error) {
	if actor.UserID == uuid.Nil {
		return nil, apperr.Forbidden("orders require an authenticated buyer")
	}
	orders, err := s.repo.ListByBuyer(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *service) ListOrderTickets(ctx context.Context, actor identity.Actor, orderID uuid.UUID) ([]Ticket, error) {
	if _, err := s.GetOrder(ctx, actor, orderID); err != nil {
		return nil, err
	}
	tickets, err := s.repo.ListTicketsByOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// ================== JOBS ==================

// ExpireStalePending cancels one batch of PENDING orders older than the pending TTL
func (s *service) ExpireStalePending(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.cfg.PendingTTL)
	stale, err := s.repo.ListStalePending(ctx, cutoff, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale orders: %w", err)
	}

	expired := 0
	for _, candidate := range stale {
		var order *Order
		err := s.txm.WithTx(ctx, func(ctx context.Context) error {
			var err error
			order, err = s.repo.GetForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			// Completed or cancelled since the listing
			if order.Status != OrderPending {
				order = nil
				return nil
			}
			now := s.now()
			order.Status = OrderCancelled
			order.CancelledAt = &now
			order.FailureReason = "expired"
			return s.repo.Save(ctx, order)
		})
		if err != nil {
			return expired, err
		}
		if order != nil {
			expired++
			s.afterTransition(ctx, order, notifications.EventOrderCancelled, "expired")
		}
	}
	return expired, nil
}

// ================== HELPERS ==================

// authorizeOrganizer allows admins, the system actor and the event's organizer
func (s *service) authorizeOrganizer(ctx context.Context, actor identity.Actor, eventID uuid.UUID) error {
	if actor.IsAdmin() || actor.IsSystem() {
		return nil
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if !actor.Owns(event.OrganizerID) {
		return apperr.Forbidden("not allowed to manage orders of this event")
	}
	return nil
}

func orderEvents(order *Order) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{order.EventID: {}}
	ids := []uuid.UUID{order.EventID}
	for _, item := range order.Items {
		if _, ok := seen[item.EventID]; !ok {
			seen[item.EventID] = struct{}{}
			ids = append(ids, item.EventID)
		}
	}
	return ids
}

func sortedIDs(counts map[uuid.UUID]int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})
	return ids
}
