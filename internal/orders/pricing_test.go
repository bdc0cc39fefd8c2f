package orders

import (
	"testing"
	"time"

	"ticketcore/internal/shared/config"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func testFees() config.FeeConfig {
	return config.FeeConfig{
		PlatformPercent:        decimal.NewFromInt(3),
		PlatformPerTicketCents: 50,
		ProcessingPercent:      decimal.NewFromFloat(2.9),
		ProcessingFixedCents:   30,
		Currency:               "USD",
	}
}

func TestComputeFees(t *testing.T) {
	quote := ComputeFees(testFees(), 5000, 2)

	// platform: 3% of 5000 = 150, plus 2 x 50
	assert.Equal(t, int64(250), quote.PlatformFeeCents)
	// processing: 2.9% of 5250 = 152.25 -> 152, plus 30
	assert.Equal(t, int64(182), quote.ProcessingFeeCents)
	assert.Equal(t, int64(5432), quote.TotalCents)
}

func TestComputeFees_FreeOrder(t *testing.T) {
	quote := ComputeFees(testFees(), 0, 3)
	assert.Equal(t, Quote{}, quote)
}

func TestAllocatePrice(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		weights  []int64
		expected []int64
	}{
		{"proportional", 8000, []int64{5000, 5000}, []int64{4000, 4000}},
		{"remainder to largest fraction", 1000, []int64{1, 1, 1}, []int64{334, 333, 333}},
		{"uneven weights", 10000, []int64{3000, 2000, 2000}, []int64{4286, 2857, 2857}},
		{"zero weights split evenly", 100, []int64{0, 0, 0}, []int64{34, 33, 33}},
		{"free bundle", 0, []int64{2500, 1000}, []int64{0, 0}},
		{"empty", 500, nil, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts := AllocatePrice(tt.total, tt.weights)
			assert.Equal(t, tt.expected, parts)

			var sum int64
			for _, p := range parts {
				sum += p
			}
			if len(parts) > 0 {
				assert.Equal(t, tt.total, sum)
			}
		})
	}
}

func TestNewTicketCode(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	code := NewTicketCode(now)

	assert.Regexp(t, `^TKT-20260314-[0-9A-F]{8}$`, code)
	assert.NotEqual(t, code, NewTicketCode(now))
}
