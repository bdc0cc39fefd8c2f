package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds all configuration for the settlement service
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	Payment  PaymentConfig

	RateLimit RateLimitConfig

	// Settlement rules
	Fees    FeeConfig
	Credits CreditConfig
	Orders  OrderConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver is "postgres" or "memory". The memory store runs every
	// transaction under one mutex, so it only suits tests, seeding and
	// local demos; release mode refuses it.
	Driver   string
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Addr     string

	CacheTTL time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret string
}

// KafkaConfig holds settlement event publishing configuration
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	RetryMax int
	Timeout  time.Duration
}

// PaymentConfig holds the payment collaborator webhook settings
type PaymentConfig struct {
	// WebhookSecretHash is a bcrypt hash of the shared secret sent in X-Payment-Secret
	WebhookSecretHash string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled            bool          `json:"enabled"`
	WindowDuration     time.Duration `json:"window_duration"`
	DefaultRequests    int           `json:"default_requests"`
	PublicRequests     int           `json:"public_requests"`
	CheckoutRequests   int           `json:"checkout_requests"`
	OrganizerRequests  int           `json:"organizer_requests"`
	SettlementRequests int           `json:"settlement_requests"`
	HealthRequests     int           `json:"health_requests"`
	WhitelistedIPs     []string      `json:"whitelisted_ips"`
}

// FeeConfig describes how platform and processing fees are derived from a subtotal
type FeeConfig struct {
	PlatformPercent        decimal.Decimal
	PlatformPerTicketCents int64
	ProcessingPercent      decimal.Decimal
	ProcessingFixedCents   int64
	Currency               string
}

// CreditConfig holds organizer credit rules
type CreditConfig struct {
	FreeFirstEventCredits int
	PriceCentsPerCredit   int64
}

// OrderConfig holds order lifecycle settings
type OrderConfig struct {
	PendingTTL         time.Duration
	SweepInterval      time.Duration
	SweepBatchSize     int
	CompletionLockTTL  time.Duration
	TicketCodeAttempts int
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", "/api"),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "ticketcore"),
			User:            getEnv("DB_USER", "ticketcore"),
			Password:        getEnv("DB_PASSWORD", "ticketcore"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),
		},

		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			CacheTTL: getDurationEnv("REDIS_CACHE_TTL", 30*time.Second),
		},

		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me-in-production"),
		},

		Kafka: KafkaConfig{
			Enabled:  getBoolEnv("KAFKA_ENABLED", false),
			Brokers:  getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:    getEnv("KAFKA_SETTLEMENT_TOPIC", "settlement-events"),
			RetryMax: getIntEnv("KAFKA_RETRY_MAX", 3),
			Timeout:  getDurationEnv("KAFKA_TIMEOUT", 10*time.Second),
		},

		Payment: PaymentConfig{
			WebhookSecretHash: getEnv("PAYMENT_WEBHOOK_SECRET_HASH", ""),
		},

		RateLimit: RateLimitConfig{
			Enabled:            getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:     getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests:    getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			PublicRequests:     getIntEnv("RATE_LIMIT_PUBLIC_REQUESTS", 120),
			CheckoutRequests:   getIntEnv("RATE_LIMIT_CHECKOUT_REQUESTS", 20),
			OrganizerRequests:  getIntEnv("RATE_LIMIT_ORGANIZER_REQUESTS", 100),
			SettlementRequests: getIntEnv("RATE_LIMIT_SETTLEMENT_REQUESTS", 600),
			HealthRequests:     getIntEnv("RATE_LIMIT_HEALTH_REQUESTS", 300),
			WhitelistedIPs:     getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		Fees: FeeConfig{
			PlatformPercent:        getDecimalEnv("FEE_PLATFORM_PERCENT", decimal.NewFromFloat(3)),
			PlatformPerTicketCents: getInt64Env("FEE_PLATFORM_PER_TICKET_CENTS", 0),
			ProcessingPercent:      getDecimalEnv("FEE_PROCESSING_PERCENT", decimal.NewFromFloat(2.9)),
			ProcessingFixedCents:   getInt64Env("FEE_PROCESSING_FIXED_CENTS", 30),
			Currency:               getEnv("CURRENCY", "USD"),
		},

		Credits: CreditConfig{
			FreeFirstEventCredits: getIntEnv("CREDITS_FREE_FIRST_EVENT", 300),
			PriceCentsPerCredit:   getInt64Env("CREDITS_PRICE_CENTS", 50),
		},

		Orders: OrderConfig{
			PendingTTL:         getDurationEnv("ORDER_PENDING_TTL", 2*time.Hour),
			SweepInterval:      getDurationEnv("ORDER_SWEEP_INTERVAL", 5*time.Minute),
			SweepBatchSize:     getIntEnv("ORDER_SWEEP_BATCH_SIZE", 100),
			CompletionLockTTL:  getDurationEnv("ORDER_COMPLETION_LOCK_TTL", 30*time.Second),
			TicketCodeAttempts: getIntEnv("TICKET_CODE_ATTEMPTS", 5),
		},

		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getInt64Env gets an int64 environment variable with a fallback value
func getInt64Env(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDecimalEnv gets a decimal environment variable (e.g. "2.9") with a fallback value
func getDecimalEnv(key string, fallback decimal.Decimal) decimal.Decimal {
	if value := os.Getenv(key); value != "" {
		if d, err := decimal.NewFromString(value); err == nil {
			return d
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// UsesMemoryStore reports whether repositories are backed by the in-memory store
func (c *Config) UsesMemoryStore() bool {
	return c.Database.Driver == "memory"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
