package staff

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// ComputeCommission returns the commission in cents for one sale.
// Percentages apply to the pre-fee subtotal, fixed rates apply per ticket,
// and free registrations never earn commission.
func ComputeCommission(staff *EventStaff, saleAmountCents int64, ticketCount int, isFree bool) int64 {
	if isFree {
		return 0
	}
	switch staff.CommissionType {
	case CommissionPercentage:
		return decimal.NewFromInt(saleAmountCents).
			Mul(staff.CommissionValue).
			Div(hundred).
			Round(0).
			IntPart()
	case CommissionFixed:
		return staff.CommissionValue.
			Mul(decimal.NewFromInt(int64(ticketCount))).
			Round(0).
			IntPart()
	default:
		return 0
	}
}
