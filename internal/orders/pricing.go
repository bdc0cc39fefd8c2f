package orders

import (
	"sort"

	"ticketcore/internal/shared/config"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Quote is the money breakdown of an order, in minor units
type Quote struct {
	SubtotalCents      int64 `json:"subtotal_cents"`
	PlatformFeeCents   int64 `json:"platform_fee_cents"`
	ProcessingFeeCents int64 `json:"processing_fee_cents"`
	TotalCents         int64 `json:"total_cents"`
}

func percentOf(amount int64, percent decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(percent).Div(hundred).Round(0).IntPart()
}

// ComputeFees derives fees from the subtotal. The platform fee is charged on the
// subtotal, processing on subtotal plus platform fee. Free orders carry no fees.
func ComputeFees(cfg config.FeeConfig, subtotalCents int64, tickets int) Quote {
	quote := Quote{SubtotalCents: subtotalCents}
	if subtotalCents <= 0 {
		return quote
	}
	quote.PlatformFeeCents = percentOf(subtotalCents, cfg.PlatformPercent) + cfg.PlatformPerTicketCents*int64(tickets)
	quote.ProcessingFeeCents = percentOf(subtotalCents+quote.PlatformFeeCents, cfg.ProcessingPercent) + cfg.ProcessingFixedCents
	quote.TotalCents = subtotalCents + quote.PlatformFeeCents + quote.ProcessingFeeCents
	return quote
}

// AllocatePrice splits totalCents across items in proportion to weights using
// the largest remainder method, so the parts always sum to totalCents.
// Zero total weight splits evenly.
func AllocatePrice(totalCents int64, weights []int64) []int64 {
	parts := make([]int64, len(weights))
	if len(weights) == 0 {
		return parts
	}

	var sum int64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		weights = make([]int64, len(parts))
		for i := range weights {
			weights[i] = 1
		}
		sum = int64(len(weights))
	}

	type remainder struct {
		index int
		value int64
	}
	remainders := make([]remainder, len(weights))
	var allocated int64
	for i, w := range weights {
		share := totalCents * w
		parts[i] = share / sum
		remainders[i] = remainder{index: i, value: share % sum}
		allocated += parts[i]
	}

	sort.SliceStable(remainders, func(a, b int) bool {
		return remainders[a].value > remainders[b].value
	})
	for i := 0; allocated < totalCents; i++ {
		parts[remainders[i%len(remainders)].index]++
		allocated++
	}
	return parts
}
