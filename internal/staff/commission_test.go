package staff

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeCommission(t *testing.T) {
	percent := &EventStaff{CommissionType: CommissionPercentage, CommissionValue: decimal.NewFromInt(10)}
	fixed := &EventStaff{CommissionType: CommissionFixed, CommissionValue: decimal.NewFromInt(250)}

	tests := []struct {
		name     string
		staff    *EventStaff
		amount   int64
		tickets  int
		isFree   bool
		expected int64
	}{
		{"percentage on subtotal", percent, 5000, 2, false, 500},
		{"fixed per ticket", fixed, 5000, 2, false, 500},
		{"free percentage", percent, 0, 3, true, 0},
		{"free fixed", fixed, 0, 3, true, 0},
		{"percentage rounds half up", &EventStaff{CommissionType: CommissionPercentage, CommissionValue: decimal.RequireFromString("12.5")}, 1004, 1, false, 126},
		{"percentage rounds down", percent, 1234, 1, false, 123},
		{"fractional fixed", &EventStaff{CommissionType: CommissionFixed, CommissionValue: decimal.RequireFromString("99.5")}, 0, 3, false, 299},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ComputeCommission(tt.staff, tt.amount, tt.tickets, tt.isFree))
		})
	}
}

func TestEventStaff_AppliesTo(t *testing.T) {
	organizer := uuid.New()
	event := uuid.New()
	other := uuid.New()

	scoped := &EventStaff{OrganizerID: organizer, EventID: &event}
	assert.True(t, scoped.AppliesTo(event, organizer))
	assert.False(t, scoped.AppliesTo(other, organizer))

	wide := &EventStaff{OrganizerID: organizer}
	assert.True(t, wide.AppliesTo(other, organizer))
	assert.False(t, wide.AppliesTo(event, other))
}
