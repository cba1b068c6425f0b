package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Shopify  ShopifyConfig
	Database DatabaseConfig
	Sync     SyncConfig
	Output   OutputConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Observ   ObservabilityConfig
}

type AppConfig struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
}

type ShopifyConfig struct {
	BaseURL    string        `envconfig:"SHOPIFY_BASE_URL"`
	Token      string        `envconfig:"SHOPIFY_TOKEN"`
	APIVersion string        `envconfig:"SHOPIFY_API_VERSION" default:"2022-04"`
	Timeout    time.Duration `envconfig:"SHOPIFY_TIMEOUT" default:"30s"`
}

type DatabaseConfig struct {
	Driver string `envconfig:"DATABASE_DRIVER" default:"sqlite"`
	URL    string `envconfig:"DATABASE_URL" default:"minirutter.db"`
}

type SyncConfig struct {
	PageLimit            int           `envconfig:"SYNC_PAGE_LIMIT" default:"50"`
	SoftDelay            time.Duration `envconfig:"SYNC_SOFT_DELAY" default:"300ms"`
	OrderCap             int           `envconfig:"SYNC_ORDER_CAP" default:"500"`
	AdaptivePageSize     bool          `envconfig:"SYNC_ADAPTIVE_PAGE_SIZE" default:"true"`
	RetryMaxAttempts     int           `envconfig:"SYNC_RETRY_MAX_ATTEMPTS" default:"3"`
	RetryInitialInterval time.Duration `envconfig:"SYNC_RETRY_INITIAL_INTERVAL" default:"500ms"`
	RetryMaxInterval     time.Duration `envconfig:"SYNC_RETRY_MAX_INTERVAL" default:"5s"`
	LockTTL              time.Duration `envconfig:"SYNC_LOCK_TTL" default:"30m"`
}

type OutputConfig struct {
	Dir string `envconfig:"OUTPUT_DIR" default:"outputs"`
}

type RedisConfig struct {
	Addr     string        `envconfig:"REDIS_ADDR"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0"`
	TTL      time.Duration `envconfig:"EXPORT_CACHE_TTL" default:"5m"`
}

type KafkaConfig struct {
	Brokers        []string `envconfig:"KAFKA_BROKERS"`
	TopicSyncEvent string   `envconfig:"KAFKA_TOPIC_SYNC_EVENTS" default:"catalog-sync-events"`
}

type ObservabilityConfig struct {
	JaegerEndpoint string `envconfig:"JAEGER_ENDPOINT"`
	PushgatewayURL string `envconfig:"PUSHGATEWAY_URL"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Kafka.Brokers = compact(cfg.Kafka.Brokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded: env=%s, driver=%s", cfg.App.Env, cfg.Database.Driver)
	return &cfg, nil
}

// Validate checks values envconfig cannot express as types.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.Sync.PageLimit <= 0 {
		return fmt.Errorf("SYNC_PAGE_LIMIT must be positive, got %d", c.Sync.PageLimit)
	}
	if c.Sync.OrderCap <= 0 {
		return fmt.Errorf("SYNC_ORDER_CAP must be positive, got %d", c.Sync.OrderCap)
	}
	if c.Sync.RetryMaxAttempts < 1 {
		return fmt.Errorf("SYNC_RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.Sync.RetryMaxAttempts)
	}
	if c.Sync.SoftDelay < 0 {
		return fmt.Errorf("SYNC_SOFT_DELAY must not be negative")
	}
	return nil
}

// RequireShopify is checked only by commands that talk to the remote API.
func (s *ShopifyConfig) RequireShopify() error {
	if s.BaseURL == "" {
		return fmt.Errorf("SHOPIFY_BASE_URL is required")
	}
	if s.Token == "" {
		return fmt.Errorf("SHOPIFY_TOKEN is required")
	}
	return nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
