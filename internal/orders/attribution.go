package orders

import (
	"context"
	"fmt"

	"ticketcore/internal/staff"

	"github.com/google/uuid"
)

// staffAttribution gives the commission engine a locked view of stored orders
type staffAttribution struct {
	repo Repository
}

func NewStaffAttribution(repo Repository) staff.OrderAttribution {
	return &staffAttribution{repo: repo}
}

func (a *staffAttribution) LockOrder(ctx context.Context, orderID uuid.UUID) (*staff.OrderFacts, error) {
	order, err := a.repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &staff.OrderFacts{
		ID:            order.ID,
		EventID:       order.EventID,
		Status:        string(order.Status),
		TicketCount:   order.TicketCount,
		SubtotalCents: order.SubtotalCents,
		IsFree:        order.PaysNoCommission(),
		SoldByStaffID: order.SoldByStaffID,
	}, nil
}

// AttributeOrder stamps the staff member on the order and its tickets so a later refund reverses the sale
func (a *staffAttribution) AttributeOrder(ctx context.Context, orderID, staffID uuid.UUID, referralCode string) error {
	order, err := a.repo.GetForUpdate(ctx, orderID)
	if err != nil {
		return err
	}
	order.SoldByStaffID = &staffID
	order.ReferralCode = referralCode
	if err := a.repo.Save(ctx, order); err != nil {
		return err
	}

	tickets, err := a.repo.ListTicketsByOrder(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}
	for i := range tickets {
		tickets[i].SoldByStaffID = &staffID
		if err := a.repo.SaveTicket(ctx, &tickets[i]); err != nil {
			return err
		}
	}
	return nil
}
