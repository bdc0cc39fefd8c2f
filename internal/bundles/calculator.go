package bundles

import (
	"time"

	"ticketcore/internal/shared/apperr"
	"ticketcore/internal/tiers"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Availability explains whether a bundle quantity can be sold right now.
// Reason names the first blocking condition.
type Availability struct {
	Available bool        `json:"available"`
	Reason    apperr.Code `json:"reason,omitempty"`
	TierName  string      `json:"tier_name,omitempty"`
	Remaining int         `json:"remaining"`
}

// Err converts a negative answer into the matching categorical error
func (a Availability) Err() error {
	if a.Available {
		return nil
	}
	switch a.Reason {
	case apperr.CodeInsufficientBundleQuantity:
		return apperr.CapacityExceeded(a.Reason, "only %d bundles left", a.Remaining).
			WithDetail("remaining", a.Remaining)
	case apperr.CodeInsufficientTierQuantity:
		return apperr.CapacityExceeded(a.Reason, "tier %q has only %d tickets left", a.TierName, a.Remaining).
			WithDetail("tier", a.TierName).
			WithDetail("remaining", a.Remaining)
	default:
		return apperr.State(a.Reason, "bundle is not on sale: %s", a.Reason)
	}
}

// Available is how many bundle units can be sold without pushing any included
// tier past its capacity. A missing tier makes the bundle unsellable.
func Available(bundle *TicketBundle, stock map[uuid.UUID]tiers.TicketTier) int {
	available := bundle.TotalQuantity - bundle.Sold
	for _, inc := range bundle.IncludedTiers {
		tier, ok := stock[inc.TierID]
		if !ok || inc.Quantity <= 0 {
			return 0
		}
		available = min(available, tier.Available()/inc.Quantity)
	}
	return max(available, 0)
}

// RegularPriceCents is the face value of one bundle unit bought tier by tier
func RegularPriceCents(bundle *TicketBundle, stock map[uuid.UUID]tiers.TicketTier) int64 {
	var total int64
	for _, inc := range bundle.IncludedTiers {
		total += stock[inc.TierID].PriceCents * int64(inc.Quantity)
	}
	return total
}

// PercentageSavings is round(100 * (regular - price) / regular), rounding half away from zero.
func PercentageSavings(regularCents, priceCents int64) int64 {
	if regularCents == 0 {
		return 0
	}
	regular := decimal.NewFromInt(regularCents)
	return decimal.NewFromInt(regularCents - priceCents).
		Mul(decimal.NewFromInt(100)).
		Div(regular).
		Round(0).
		IntPart()
}

// Check re-derives availability for qty units and reports the first blocking reason.
func Check(bundle *TicketBundle, stock map[uuid.UUID]tiers.TicketTier, qty int, now time.Time) Availability {
	if !bundle.IsActive {
		return Availability{Reason: apperr.CodeBundleInactive}
	}
	if bundle.SaleStart != nil && now.Before(*bundle.SaleStart) {
		return Availability{Reason: apperr.CodeSaleNotStarted}
	}
	if bundle.SaleEnd != nil && now.After(*bundle.SaleEnd) {
		return Availability{Reason: apperr.CodeSaleEnded}
	}
	if remaining := bundle.TotalQuantity - bundle.Sold; remaining < qty {
		return Availability{Reason: apperr.CodeInsufficientBundleQuantity, Remaining: max(remaining, 0)}
	}
	for _, inc := range bundle.IncludedTiers {
		tier, ok := stock[inc.TierID]
		if !ok {
			return Availability{Reason: apperr.CodeInsufficientTierQuantity, TierName: inc.TierID.String()}
		}
		if tier.Available() < inc.Quantity*qty {
			return Availability{
				Reason:    apperr.CodeInsufficientTierQuantity,
				TierName:  tier.Name,
				Remaining: tier.Available(),
			}
		}
	}
	return Availability{Available: true, Remaining: Available(bundle, stock)}
}

// TierUnits is the number of tickets of one tier a bundle purchase fans out into
type TierUnits struct {
	TierID   uuid.UUID
	Quantity int
}

// Expand multiplies each included tier by the purchased bundle quantity, keeping bundle order.
func Expand(bundle *TicketBundle, qty int) []TierUnits {
	units := make([]TierUnits, 0, len(bundle.IncludedTiers))
	for _, inc := range bundle.IncludedTiers {
		units = append(units, TierUnits{TierID: inc.TierID, Quantity: inc.Quantity * qty})
	}
	return units
}
