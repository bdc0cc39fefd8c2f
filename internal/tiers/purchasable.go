package tiers

import (
	"time"

	"ticketcore/internal/shared/apperr"
)

// CheckPurchasable is the non-binding pre-flight run before an order is created.
// The binding check is the conditional increment at completion.
func CheckPurchasable(tier *TicketTier, quantity int, now time.Time) error {
	if !tier.IsActive {
		return apperr.State(apperr.CodeTierInactive, "tier %q is not on sale", tier.Name).
			WithDetail("tier", tier.Name)
	}
	if tier.SaleStart != nil && now.Before(*tier.SaleStart) {
		return apperr.State(apperr.CodeSaleNotStarted, "sales for tier %q have not started", tier.Name).
			WithDetail("tier", tier.Name).
			WithDetail("sale_start", *tier.SaleStart)
	}
	if tier.SaleEnd != nil && now.After(*tier.SaleEnd) {
		return apperr.State(apperr.CodeSaleEnded, "sales for tier %q have ended", tier.Name).
			WithDetail("tier", tier.Name).
			WithDetail("sale_end", *tier.SaleEnd)
	}
	if remaining := tier.Available(); quantity > remaining {
		return apperr.CapacityExceeded(apperr.CodeInsufficientTierQuantity,
			"only %d tickets left for tier %q", remaining, tier.Name).
			WithDetail("tier", tier.Name).
			WithDetail("remaining", remaining)
	}
	return nil
}
