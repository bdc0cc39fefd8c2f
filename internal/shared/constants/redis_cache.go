package constants

import "time"

// Redis key layout
// Pattern: ticketcore:{module}:{operation}:{identifier}

// Availability is read on every checkout page and invalidated after every
// settlement write, so it only needs to survive between bursts.
const (
	TTL_REALTIME_SHORT = 30 * time.Second
)

const (
	CACHE_PREFIX = "ticketcore"
)

// ================== TIERS ==================

const (
	CACHE_KEY_TIERS_BY_EVENT = CACHE_PREFIX + ":tiers:by_event:uuid:" // + event-id
)

const (
	TTL_TIERS_BY_EVENT = TTL_REALTIME_SHORT
)

// ================== BUNDLES ==================

const (
	CACHE_KEY_BUNDLES_BY_EVENT = CACHE_PREFIX + ":bundles:by_event:uuid:" // + event-id
)

const (
	TTL_BUNDLES_BY_EVENT = TTL_REALTIME_SHORT
)

// ================== ORDERS ==================

const (
	LOCK_KEY_ORDER_COMPLETION = CACHE_PREFIX + ":orders:completion:uuid:" // + order-id
)

// ================== ANALYTICS ==================

const (
	CACHE_KEY_ANALYTICS_EVENT = CACHE_PREFIX + ":analytics:event:uuid:" // + event-id
)

const (
	TTL_ANALYTICS_EVENT = time.Minute
)

// ================== RATE LIMITING ==================

const (
	RATE_LIMIT_PREFIX = CACHE_PREFIX + ":ratelimit:"
)

// ================== HELPER FUNCTIONS ==================

func BuildTiersByEventKey(eventID string) string {
	return CACHE_KEY_TIERS_BY_EVENT + eventID
}

func BuildBundlesByEventKey(eventID string) string {
	return CACHE_KEY_BUNDLES_BY_EVENT + eventID
}

func BuildOrderCompletionLockKey(orderID string) string {
	return LOCK_KEY_ORDER_COMPLETION + orderID
}

func BuildAnalyticsEventKey(eventID string) string {
	return CACHE_KEY_ANALYTICS_EVENT + eventID
}
