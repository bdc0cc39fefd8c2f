package orders

type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
	OrderFailed    OrderStatus = "FAILED"
	OrderRefunded  OrderStatus = "REFUNDED"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderPending, OrderCompleted, OrderCancelled, OrderFailed, OrderRefunded:
		return true
	}
	return false
}

func (s OrderStatus) String() string {
	return string(s)
}

// CanBeCancelled reports whether the order may leave checkout without any ledger writes
func (s OrderStatus) CanBeCancelled() bool {
	return s == OrderPending
}

func (s OrderStatus) IsTerminal() bool {
	return s != OrderPending
}

type TicketStatus string

const (
	TicketValid     TicketStatus = "VALID"
	TicketScanned   TicketStatus = "SCANNED"
	TicketCancelled TicketStatus = "CANCELLED"
	TicketRefunded  TicketStatus = "REFUNDED"
)

func (s TicketStatus) String() string {
	return string(s)
}

// IsActive reports whether the ticket still holds inventory
func (s TicketStatus) IsActive() bool {
	return s == TicketValid || s == TicketScanned
}
