package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetenv removes key for the duration of the test
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"SHOPIFY_API_VERSION", "DATABASE_DRIVER", "DATABASE_URL", "SYNC_PAGE_LIMIT",
		"SYNC_SOFT_DELAY", "SYNC_ORDER_CAP", "SYNC_ADAPTIVE_PAGE_SIZE", "OUTPUT_DIR", "KAFKA_BROKERS",
	} {
		unsetenv(t, key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "2022-04", cfg.Shopify.APIVersion)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "minirutter.db", cfg.Database.URL)
	assert.Equal(t, 50, cfg.Sync.PageLimit)
	assert.Equal(t, 300*time.Millisecond, cfg.Sync.SoftDelay)
	assert.Equal(t, 500, cfg.Sync.OrderCap)
	assert.True(t, cfg.Sync.AdaptivePageSize)
	assert.Equal(t, "outputs", cfg.Output.Dir)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SHOPIFY_BASE_URL", "https://shop.example.com")
	t.Setenv("SYNC_PAGE_LIMIT", "25")
	t.Setenv("SYNC_SOFT_DELAY", "1s")
	t.Setenv("SYNC_ADAPTIVE_PAGE_SIZE", "false")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, ,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://shop.example.com", cfg.Shopify.BaseURL)
	assert.Equal(t, 25, cfg.Sync.PageLimit)
	assert.Equal(t, time.Second, cfg.Sync.SoftDelay)
	assert.False(t, cfg.Sync.AdaptivePageSize)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("SYNC_ORDER_CAP", "lots")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: "sqlite"},
			Sync:     SyncConfig{PageLimit: 50, OrderCap: 500, RetryMaxAttempts: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "postgres", mutate: func(c *Config) { c.Database.Driver = "postgres" }},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mysql" }, wantErr: "DATABASE_DRIVER"},
		{name: "zero page limit", mutate: func(c *Config) { c.Sync.PageLimit = 0 }, wantErr: "SYNC_PAGE_LIMIT"},
		{name: "negative cap", mutate: func(c *Config) { c.Sync.OrderCap = -1 }, wantErr: "SYNC_ORDER_CAP"},
		{name: "no attempts", mutate: func(c *Config) { c.Sync.RetryMaxAttempts = 0 }, wantErr: "SYNC_RETRY_MAX_ATTEMPTS"},
		{name: "negative delay", mutate: func(c *Config) { c.Sync.SoftDelay = -time.Second }, wantErr: "SYNC_SOFT_DELAY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRequireShopify(t *testing.T) {
	s := &ShopifyConfig{}
	assert.ErrorContains(t, s.RequireShopify(), "SHOPIFY_BASE_URL")

	s.BaseURL = "https://shop.example.com"
	assert.ErrorContains(t, s.RequireShopify(), "SHOPIFY_TOKEN")

	s.Token = "secret"
	assert.NoError(t, s.RequireShopify())
}
