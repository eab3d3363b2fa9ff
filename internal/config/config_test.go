package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/kiosk-ordering/internal/ledger"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HTTP_ADDR", "DATABASE_URL", "KAFKA_BROKERS", "KAFKA_CONSUMER_GROUP", "STOCK_POLICY",
		"HUB_SEND_TIMEOUT", "HUB_SEND_CONCURRENCY", "SEED_PRODUCTS", "LOG_LEVEL",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "SERVICE_NAME",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.NotEmpty(t, cfg.KafkaConsumerGroup)
	assert.Equal(t, ledger.PolicyLenient, cfg.StockPolicy)
	assert.Equal(t, 5*time.Second, cfg.HubSendTimeout)
	assert.Equal(t, 16, cfg.HubSendConcurrency)
	assert.True(t, cfg.SeedProducts)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "kiosk-ordering", cfg.ServiceName)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://kiosk@db/kiosk")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("KAFKA_CONSUMER_GROUP", "hub-a")
	t.Setenv("STOCK_POLICY", "strict")
	t.Setenv("HUB_SEND_TIMEOUT", "2s")
	t.Setenv("HUB_SEND_CONCURRENCY", "4")
	t.Setenv("SEED_PRODUCTS", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "postgres://kiosk@db/kiosk", cfg.DatabaseURL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hub-a", cfg.KafkaConsumerGroup)
	assert.Equal(t, ledger.PolicyStrict, cfg.StockPolicy)
	assert.Equal(t, 2*time.Second, cfg.HubSendTimeout)
	assert.Equal(t, 4, cfg.HubSendConcurrency)
	assert.False(t, cfg.SeedProducts)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"STOCK_POLICY":         "optimistic",
		"HUB_SEND_TIMEOUT":     "500ms",
		"HUB_SEND_CONCURRENCY": "0",
		"SEED_PRODUCTS":        "maybe",
		"LOG_LEVEL":            "loud",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
