package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"ticketcore/internal/orders"
	"ticketcore/internal/shared/apperr"

	"github.com/google/uuid"
)

// orderRepo implements orders.Repository; items and tickets live in their own tables
type orderRepo struct {
	store *Store
}

func (r *orderRepo) Create(ctx context.Context, order *orders.Order) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		if order.ID == uuid.Nil {
			order.ID = uuid.New()
		}
		if _, exists := st.orders[order.ID]; exists {
			return apperr.InvalidInput("order %s already exists", order.ID)
		}
		touch(&order.CreatedAt, &order.UpdatedAt, now)
		for i := range order.Items {
			item := &order.Items[i]
			if item.ID == uuid.Nil {
				item.ID = uuid.New()
			}
			item.OrderID = order.ID
			touch(&item.CreatedAt, nil, now)
			st.items[item.ID] = *item
		}
		st.orders[order.ID] = detachOrder(*order)
		return nil
	})
}

// detachOrder strips associations and copies the seat selection
func detachOrder(order orders.Order) orders.Order {
	order.Items = nil
	order.SelectedSeats = slices.Clone(order.SelectedSeats)
	return order
}

func (r *orderRepo) first(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	var out orders.Order
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		order, ok := st.orders[id]
		if !ok {
			return apperr.NotFound("order", id)
		}
		out = detachOrder(order)
		for _, item := range st.items {
			if item.OrderID == id {
				out.Items = append(out.Items, item)
			}
		}
		slices.SortFunc(out.Items, func(a, b orders.OrderItem) int { return cmp.Compare(a.Position, b.Position) })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *orderRepo) GetByID(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	return r.first(ctx, id)
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*orders.Order, error) {
	return r.first(ctx, id)
}

func (r *orderRepo) Save(ctx context.Context, order *orders.Order) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		touch(&order.CreatedAt, &order.UpdatedAt, now)
		st.orders[order.ID] = detachOrder(*order)
		return nil
	})
}

func (r *orderRepo) ListStalePending(ctx context.Context, createdBefore time.Time, limit int) ([]orders.Order, error) {
	var out []orders.Order
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.orders,
			func(o orders.Order) bool { return o.Status == orders.OrderPending && o.CreatedAt.Before(createdBefore) },
			func(o orders.Order) time.Time { return o.CreatedAt },
			func(o orders.Order) uuid.UUID { return o.ID })
		return nil
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]orders.Order, error) {
	var out []orders.Order
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		out = sortedValues(st.orders,
			func(o orders.Order) bool { return o.BuyerID == buyerID },
			func(o orders.Order) time.Time { return o.CreatedAt },
			func(o orders.Order) uuid.UUID { return o.ID })
		return nil
	})
	slices.Reverse(out)
	return out, err
}

func (r *orderRepo) SummarizeByEvent(ctx context.Context, eventID uuid.UUID) ([]orders.StatusTotals, error) {
	byStatus := map[orders.OrderStatus]*orders.StatusTotals{}
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		for _, o := range st.orders {
			if o.EventID != eventID {
				continue
			}
			t, ok := byStatus[o.Status]
			if !ok {
				t = &orders.StatusTotals{Status: o.Status}
				byStatus[o.Status] = t
			}
			t.Orders++
			t.Tickets += int64(o.TicketCount)
			t.SubtotalCents += o.SubtotalCents
			t.FeeCents += o.PlatformFeeCents + o.ProcessingFeeCents
			t.TotalCents += o.TotalCents
		}
		return nil
	})
	out := make([]orders.StatusTotals, 0, len(byStatus))
	for _, t := range byStatus {
		out = append(out, *t)
	}
	slices.SortFunc(out, func(a, b orders.StatusTotals) int { return cmp.Compare(a.Status, b.Status) })
	return out, err
}

// CreateTickets enforces the unique ticket_code and order_item_id indexes
func (r *orderRepo) CreateTickets(ctx context.Context, tickets []orders.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	return r.store.do(ctx, func(st *state, now time.Time) error {
		// Check the whole batch before inserting any of it
		codes := make(map[string]bool, len(st.tickets))
		items := make(map[uuid.UUID]bool, len(st.tickets))
		for _, t := range st.tickets {
			codes[t.TicketCode] = true
			items[t.OrderItemID] = true
		}
		for _, t := range tickets {
			if codes[t.TicketCode] {
				return apperr.InvalidInput("ticket code %s already exists", t.TicketCode)
			}
			if items[t.OrderItemID] {
				return apperr.InvalidInput("order item %s already has a ticket", t.OrderItemID)
			}
			codes[t.TicketCode] = true
			items[t.OrderItemID] = true
		}
		for i := range tickets {
			t := &tickets[i]
			if t.ID == uuid.Nil {
				t.ID = uuid.New()
			}
			touch(&t.CreatedAt, &t.UpdatedAt, now)
			st.tickets[t.ID] = *t
		}
		return nil
	})
}

func (r *orderRepo) TicketCodeExists(ctx context.Context, code string) (bool, error) {
	found := false
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		for _, t := range st.tickets {
			if t.TicketCode == code {
				found = true
				break
			}
		}
		return nil
	})
	return found, err
}

func (r *orderRepo) ListTicketsByOrder(ctx context.Context, orderID uuid.UUID) ([]orders.Ticket, error) {
	var out []orders.Ticket
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		for _, t := range st.tickets {
			if t.OrderID == orderID {
				out = append(out, t)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b orders.Ticket) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.TicketCode, b.TicketCode)
	})
	return out, err
}

func (r *orderRepo) findTicket(ctx context.Context, key any, match func(orders.Ticket) bool) (*orders.Ticket, error) {
	var out *orders.Ticket
	err := r.store.do(ctx, func(st *state, _ time.Time) error {
		for _, t := range st.tickets {
			if match(t) {
				ticket := t
				out = &ticket
				return nil
			}
		}
		return apperr.NotFound("ticket", key)
	})
	return out, err
}

func (r *orderRepo) GetTicketForUpdate(ctx context.Context, id uuid.UUID) (*orders.Ticket, error) {
	return r.findTicket(ctx, id, func(t orders.Ticket) bool { return t.ID == id })
}

func (r *orderRepo) GetTicketByCodeForUpdate(ctx context.Context, code string) (*orders.Ticket, error) {
	return r.findTicket(ctx, code, func(t orders.Ticket) bool { return t.TicketCode == code })
}

func (r *orderRepo) SaveTicket(ctx context.Context, ticket *orders.Ticket) error {
	return r.store.do(ctx, func(st *state, now time.Time) error {
		touch(&ticket.CreatedAt, &ticket.UpdatedAt, now)
		st.tickets[ticket.ID] = *ticket
		return nil
	})
}
