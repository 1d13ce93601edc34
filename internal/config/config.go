package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures runtime configuration for the API service and shopctl.
type Config struct {
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Payments    PaymentsConfig
	Webhook     WebhookConfig
	Auth        AuthConfig
	Idempotency IdempotencyConfig
	Redis       RedisConfig
	Mongo       MongoConfig
	RateLimit   RateLimitConfig
	Telemetry   TelemetryConfig
	Service     ServiceConfig
}

type HTTPConfig struct {
	Port          int
	ShutdownGrace int
}

type DatabaseConfig struct {
	URL            string
	AutoMigrate    bool
	MigrationsPath string
}

type PaymentsConfig struct {
	StripeSecretKey     string
	StripeAPIURL        string
	Currency            string
	BaseURL             string
	PriceToleranceCents int64
}

type WebhookConfig struct {
	Secret                  string
	Tolerance               time.Duration
	SynthesizeMissingOrders bool
}

type AuthConfig struct {
	AdminJWTSecret string
}

type IdempotencyConfig struct {
	Backend string
	TTL     time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type TelemetryConfig struct {
	LogLevel      string
	OTelEndpoint  string
	EnableTracing bool
	EnableMetrics bool
	SampleRate    float64
}

type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
}

const (
	IdempotencyBackendPostgres = "postgres"
	IdempotencyBackendRedis    = "redis"
	IdempotencyBackendMemory   = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("API_HTTP_PORT", 8080)
	v.SetDefault("API_SHUTDOWN_GRACE_SECONDS", 15)

	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("MIGRATIONS_PATH", "migrations")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "skinstore")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_CONNS", "25")
	v.SetDefault("DB_MIN_CONNS", "5")
	v.SetDefault("DB_MAX_CONN_LIFETIME", "5m")

	v.SetDefault("PAYMENTS_CURRENCY", "usd")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:3000")
	v.SetDefault("CHECKOUT_PRICE_TOLERANCE_CENTS", 0)

	v.SetDefault("WEBHOOK_TOLERANCE", 5*time.Minute)
	v.SetDefault("WEBHOOK_SYNTHESIZE_MISSING_ORDERS", true)

	v.SetDefault("IDEMPOTENCY_BACKEND", IdempotencyBackendPostgres)
	v.SetDefault("IDEMPOTENCY_TTL", 24*time.Hour)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("MONGO_DATABASE", "skinstore")
	v.SetDefault("MONGO_AUDIT_COLLECTION", "order_audit")

	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_ENABLE_TRACING", true)
	v.SetDefault("OTEL_ENABLE_METRICS", true)
	v.SetDefault("OTEL_SAMPLE_RATE", 1.0)

	v.SetDefault("API_SERVICE_NAME", "skinstore-api")
	v.SetDefault("SERVICE_VERSION", "0.1.0")
	v.SetDefault("ENVIRONMENT", "development")
}

// Load reads configuration from environment variables, optionally layered over
// the YAML file named by CONFIG_FILE. Environment variables always win.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		HTTP: HTTPConfig{
			Port:          v.GetInt("API_HTTP_PORT"),
			ShutdownGrace: v.GetInt("API_SHUTDOWN_GRACE_SECONDS"),
		},
		Database: DatabaseConfig{
			URL:            databaseURL(v),
			AutoMigrate:    v.GetBool("AUTO_MIGRATE"),
			MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		},
		Payments: PaymentsConfig{
			StripeSecretKey:     v.GetString("STRIPE_SECRET_KEY"),
			StripeAPIURL:        v.GetString("STRIPE_API_URL"),
			Currency:            strings.ToLower(v.GetString("PAYMENTS_CURRENCY")),
			BaseURL:             strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
			PriceToleranceCents: v.GetInt64("CHECKOUT_PRICE_TOLERANCE_CENTS"),
		},
		Webhook: WebhookConfig{
			Secret:                  v.GetString("STRIPE_WEBHOOK_SECRET"),
			Tolerance:               v.GetDuration("WEBHOOK_TOLERANCE"),
			SynthesizeMissingOrders: v.GetBool("WEBHOOK_SYNTHESIZE_MISSING_ORDERS"),
		},
		Auth: AuthConfig{
			AdminJWTSecret: v.GetString("ADMIN_JWT_SECRET"),
		},
		Idempotency: IdempotencyConfig{
			Backend: strings.ToLower(v.GetString("IDEMPOTENCY_BACKEND")),
			TTL:     v.GetDuration("IDEMPOTENCY_TTL"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Mongo: MongoConfig{
			URI:        v.GetString("MONGO_URI"),
			Database:   v.GetString("MONGO_DATABASE"),
			Collection: v.GetString("MONGO_AUDIT_COLLECTION"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             v.GetInt("RATE_LIMIT_BURST"),
		},
		Telemetry: TelemetryConfig{
			LogLevel:      v.GetString("LOG_LEVEL"),
			OTelEndpoint:  v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			EnableTracing: v.GetBool("OTEL_ENABLE_TRACING"),
			EnableMetrics: v.GetBool("OTEL_ENABLE_METRICS"),
			SampleRate:    v.GetFloat64("OTEL_SAMPLE_RATE"),
		},
		Service: ServiceConfig{
			Name:        v.GetString("API_SERVICE_NAME"),
			Version:     v.GetString("SERVICE_VERSION"),
			Environment: v.GetString("ENVIRONMENT"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid API_HTTP_PORT: %d", c.HTTP.Port)
	}
	if c.Payments.PriceToleranceCents < 0 {
		return fmt.Errorf("invalid CHECKOUT_PRICE_TOLERANCE_CENTS: %d", c.Payments.PriceToleranceCents)
	}
	if c.Webhook.Tolerance < 0 {
		return fmt.Errorf("invalid WEBHOOK_TOLERANCE: %s", c.Webhook.Tolerance)
	}
	if len(c.Payments.Currency) != 3 {
		return fmt.Errorf("invalid PAYMENTS_CURRENCY: %q", c.Payments.Currency)
	}

	switch c.Idempotency.Backend {
	case IdempotencyBackendPostgres, IdempotencyBackendRedis, IdempotencyBackendMemory:
	default:
		return fmt.Errorf("invalid IDEMPOTENCY_BACKEND: %q", c.Idempotency.Backend)
	}

	return nil
}

func databaseURL(v *viper.Viper) string {
	if url := v.GetString("DATABASE_URL"); url != "" {
		return url
	}

	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s&pool_min_conns=%s&pool_max_conn_lifetime=%s",
		v.GetString("DB_USER"), v.GetString("DB_PASSWORD"), v.GetString("DB_HOST"), v.GetString("DB_PORT"),
		v.GetString("DB_NAME"), v.GetString("DB_SSLMODE"),
		v.GetString("DB_MAX_CONNS"), v.GetString("DB_MIN_CONNS"), v.GetString("DB_MAX_CONN_LIFETIME"),
	)
}
