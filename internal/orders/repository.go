package orders

import (
	"context"
	"errors"
	"time"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/shared/txn"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Orders
	// Create inserts the order together with its items
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	Save(ctx context.Context, order *Order) error
	ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]Order, error)
	// SummarizeByEvent groups the event's orders by status
	SummarizeByEvent(ctx context.Context, eventID uuid.UUID) ([]StatusTotals, error)

	// Tickets
	CreateTickets(ctx context.Context, tickets []Ticket) error
	TicketCodeExists(ctx context.Context, code string) (bool, error)
	ListTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]Ticket, error)
	GetTicketForUpdate(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetTicketByCodeForUpdate(ctx context.Context, code string) (*Ticket, error)
	SaveTicket(ctx context.Context, ticket *Ticket) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, order *Order) error {
	return txn.DB(ctx, r.db).Create(order).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.firstOrder(txn.DB(ctx, r.db), id)
}

func (r *repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	return r.firstOrder(txn.DB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

// firstOrder loads the order with its items in position order
func (r *repository) firstOrder(query *gorm.DB, id uuid.UUID) (*Order, error) {
	var order Order
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) Save(ctx context.Context, order *Order) error {
	// Items are immutable after creation
	return txn.DB(ctx, r.db).Omit(clause.Associations).Save(order).Error
}

func (r *repository) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]Order, error) {
	var orders []Order
	err := txn.DB(ctx, r.db).
		Where("status = ? AND created_at < ?", OrderPending, createdBefore). // oldest first
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]Order, error) {
	var orders []Order
	err := txn.DB(ctx, r.db).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *repository) SummarizeByEvent(ctx context.Context, eventID uuid.UUID) ([]StatusTotals, error) {
	var totals []StatusTotals
	err := txn.DB(ctx, r.db).Model(&Order{}).
		Select(`status,
			COUNT(*) AS orders,
			COALESCE(SUM(ticket_count), 0) AS tickets,
			COALESCE(SUM(subtotal_cents), 0) AS subtotal_cents,
			COALESCE(SUM(platform_fee_cents + processing_fee_cents), 0) AS fee_cents,
			COALESCE(SUM(total_cents), 0) AS total_cents`).
		Where("event_id = ?", eventID).
		Group("status").
		Order("status").
		Scan(&totals).Error
	return totals, err
}

func (r *repository) CreateTickets(ctx context.Context, tickets []Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	// One batch insert; the unique ticket_code index rejects collisions
	return txn.DB(ctx, r.db).Create(&tickets).Error
}

func (r *repository) TicketCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := txn.DB(ctx, r.db).Model(&Ticket{}).Where("ticket_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *repository) ListTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]Ticket, error) {
	var tickets []Ticket
	err := txn.DB(ctx, r.db).
		Where("order_id = ?", orderID).
		Order("created_at ASC, ticket_code ASC").
		Find(&tickets).Error
	return tickets, err
}

func (r *repository) GetTicketForUpdate(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	return r.firstTicket(txn.DB(ctx, r.db).Where("id = ?", id), id)
}

func (r *repository) GetTicketByCodeForUpdate(ctx context.Context, code string) (*Ticket, error) {
	return r.firstTicket(txn.DB(ctx, r.db).Where("ticket_code = ?", code), code)
}

func (r *repository) firstTicket(query *gorm.DB, key any) (*Ticket, error) {
	var ticket Ticket
	err := query.Clauses(clause.Locking{Strength: "UPDATE"}).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("ticket", key)
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) SaveTicket(ctx context.Context, ticket *Ticket) error {
	return txn.DB(ctx, r.db).Save(ticket).Error
}
