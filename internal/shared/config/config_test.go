package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 300, cfg.Credits.FreeFirstEventCredits)
	assert.Equal(t, "/api/v1", cfg.GetAPIBasePath())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Fees.ProcessingPercent.Equal(decimal.NewFromFloat(2.9)))
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("FEE_PLATFORM_PERCENT", "4.25")
	t.Setenv("ORDER_PENDING_TTL", "45m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CREDITS_FREE_FIRST_EVENT", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.UsesMemoryStore())
	assert.Equal(t, "4.25", cfg.Fees.PlatformPercent.String())
	assert.Equal(t, 45*time.Minute, cfg.Orders.PendingTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 300, cfg.Credits.FreeFirstEventCredits)
}
