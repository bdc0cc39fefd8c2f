package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesByCode(t *testing.T) {
	err := Conflict(CodeSeatAlreadyReserved, "seat %s is taken", "A-1-3").WithDetail("seat", "A-1-3")

	assert.True(t, errors.Is(err, ErrSeatAlreadyReserved))
	assert.False(t, errors.Is(err, ErrSeatConflict))
	assert.Equal(t, "SeatAlreadyReserved: seat A-1-3 is taken", err.Error())
}

func TestError_SurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("failed to complete order: %w", Credit(CodeInsufficientCredits, "need 50"))

	assert.True(t, errors.Is(wrapped, ErrInsufficientCredits))
	assert.True(t, IsKind(wrapped, KindCredit))
	assert.False(t, IsKind(wrapped, KindConflict))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeInsufficientCredits, appErr.Code)
}

func TestError_WithDetailDoesNotMutateOriginal(t *testing.T) {
	base := CapacityExceeded(CodeTierSoldOutOfBounds, "tier full")
	withTier := base.WithDetail("tier", "VIP")
	withBoth := withTier.WithDetail("available", 0)

	assert.Nil(t, base.Details)
	assert.Len(t, withTier.Details, 1)
	assert.Len(t, withBoth.Details, 2)
	assert.Equal(t, "VIP", withBoth.Details["tier"])
}

func TestIsKind_PlainError(t *testing.T) {
	assert.False(t, IsKind(errors.New("connection reset"), KindConflict))
	_, ok := As(errors.New("boom"))
	assert.False(t, ok)
}
