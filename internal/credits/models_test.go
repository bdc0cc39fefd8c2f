package credits

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func assertBalanced(t *testing.T, c *OrganizerCredits) {
	t.Helper()
	assert.Equal(t, c.CreditsTotal, c.CreditsUsed+c.CreditsRemaining, "total must equal used + remaining")
	assert.GreaterOrEqual(t, c.FreeCreditsRemaining, 0)
	assert.LessOrEqual(t, c.FreeCreditsRemaining, c.CreditsRemaining)
}

func TestOrganizerCredits_FreeAllocationBindsFirstEvent(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	c := &OrganizerCredits{OrganizerID: uuid.New()}

	assert.True(t, c.bindFirstEvent(first, 300))
	assert.False(t, c.bindFirstEvent(second, 300))

	assert.Equal(t, 300, c.Available(first))
	assert.Equal(t, 0, c.Available(second))
	assertBalanced(t, c)
}

func TestOrganizerCredits_FirstEventRefundReturnsPaidBeforeFree(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	c := &OrganizerCredits{}
	c.bindFirstEvent(first, 300)
	c.addPurchased(100)

	c.deduct(first, 350)
	assert.Equal(t, 0, c.FreeCreditsRemaining)
	assert.Equal(t, 50, c.FirstEventPaidUsed)
	assertBalanced(t, c)

	assert.Equal(t, 80, c.refund(first, 80))
	assert.Equal(t, 30, c.FreeCreditsRemaining)
	assert.Equal(t, 100, c.PaidRemaining(), "the 50 purchased credits come back first")
	assert.Equal(t, 100, c.Available(second))
	assert.Equal(t, 130, c.Available(first))
	assertBalanced(t, c)
}

func TestOrganizerCredits_RefundClampsToUsed(t *testing.T) {
	event := uuid.New()
	c := &OrganizerCredits{}
	c.addPurchased(20)
	c.deduct(event, 5)

	assert.Equal(t, 5, c.refund(event, 10))
	assert.Equal(t, 0, c.CreditsUsed)
	assert.Equal(t, 20, c.CreditsRemaining)
	assertBalanced(t, c)
}
