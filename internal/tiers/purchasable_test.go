package tiers

import (
	"testing"
	"time"

	"ticketcore/internal/shared/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPurchasable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)

	cases := []struct {
		name string
		tier TicketTier
		qty  int
		want *apperr.Error
	}{
		{"on sale", TicketTier{Name: "GA", Quantity: 10, Sold: 8, IsActive: true}, 2, nil},
		{"inactive", TicketTier{Name: "GA", Quantity: 10, IsActive: false}, 1, apperr.State(apperr.CodeTierInactive, "")},
		{"not started", TicketTier{Name: "GA", Quantity: 10, IsActive: true, SaleStart: &later}, 1, apperr.State(apperr.CodeSaleNotStarted, "")},
		{"ended", TicketTier{Name: "GA", Quantity: 10, IsActive: true, SaleEnd: &earlier}, 1, apperr.State(apperr.CodeSaleEnded, "")},
		{"short", TicketTier{Name: "GA", Quantity: 10, Sold: 9, IsActive: true}, 2, apperr.ErrInsufficientTierQuantity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckPurchasable(&tc.tier, tc.qty, now)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCheckPurchasable_ReportsRemaining(t *testing.T) {
	tier := TicketTier{Name: "Balcony", Quantity: 5, Sold: 4, IsActive: true}

	err := CheckPurchasable(&tier, 3, time.Now())

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindCapacityExceeded, appErr.Kind)
	assert.Equal(t, "Balcony", appErr.Details["tier"])
	assert.Equal(t, 1, appErr.Details["remaining"])
}
