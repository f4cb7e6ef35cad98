package config

import (
	"fmt"
	"time"

	"github.com/tavolo/fulfillment/pkg/config"
	"github.com/tavolo/fulfillment/pkg/database"
)

// Config holds all service configuration, loaded from the environment.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"fulfillment"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"postgres"`
	PostgresDB       string `env:"POSTGRES_DB" envDefault:"fulfillment"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	PostgresMaxConns int32  `env:"POSTGRES_MAX_CONNS" envDefault:"10"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"true"`

	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`

	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:""`
	TraceSampling  float64 `env:"TRACE_SAMPLING" envDefault:"1.0"`
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`

	// Pricing. Tax rate is in basis points: 1600 = 16%.
	TaxRateBps int64 `env:"TAX_RATE_BPS" envDefault:"1600"`

	// Analytics.
	ForecastWindowDays  int           `env:"FORECAST_WINDOW_DAYS" envDefault:"30"`
	ReorderWindowDays   int           `env:"REORDER_WINDOW_DAYS" envDefault:"90"`
	LeadTimeDays        int           `env:"LEAD_TIME_DAYS" envDefault:"7"`
	CostFactor          float64       `env:"COST_FACTOR" envDefault:"10"`
	DefaultServiceLevel float64       `env:"DEFAULT_SERVICE_LEVEL" envDefault:"0.95"`
	AnalyticsCacheTTL   time.Duration `env:"ANALYTICS_CACHE_TTL" envDefault:"5m"`

	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"100"`
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("config: invalid HTTP_PORT %d", c.HTTPPort)
	}
	if c.TaxRateBps < 0 || c.TaxRateBps > 10000 {
		return fmt.Errorf("config: TAX_RATE_BPS must be in [0,10000], got %d", c.TaxRateBps)
	}
	if c.ForecastWindowDays <= 0 || c.ReorderWindowDays <= 0 {
		return fmt.Errorf("config: analytics windows must be positive")
	}
	if c.LeadTimeDays <= 0 {
		return fmt.Errorf("config: LEAD_TIME_DAYS must be positive")
	}
	if c.DefaultServiceLevel <= 0 || c.DefaultServiceLevel >= 1 {
		return fmt.Errorf("config: DEFAULT_SERVICE_LEVEL must be in (0,1), got %g", c.DefaultServiceLevel)
	}
	return nil
}

// Postgres returns the database connection configuration.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:     c.PostgresHost,
		Port:     c.PostgresPort,
		User:     c.PostgresUser,
		Password: c.PostgresPassword,
		DBName:   c.PostgresDB,
		SSLMode:  c.PostgresSSLMode,
		MaxConns: c.PostgresMaxConns,
	}
}

// Redis returns the cache connection configuration.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}
