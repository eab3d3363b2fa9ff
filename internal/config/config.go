// Package config reads process settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/egannguyen/kiosk-ordering/internal/ledger"
)

type Config struct {
	HTTPAddr    string
	DatabaseURL string

	KafkaBrokers       []string
	KafkaConsumerGroup string

	StockPolicy ledger.Policy

	HubSendTimeout     time.Duration
	HubSendConcurrency int

	SeedProducts bool
	LogLevel     slog.Level

	OTLPEndpoint string
	ServiceName  string
}

// Load builds a Config from environment variables, falling back to defaults
// suitable for running locally against an in-memory store.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("SERVICE_NAME", "kiosk-ordering"),
	}

	for _, b := range strings.Split(getEnv("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}
	cfg.KafkaConsumerGroup = getEnv("KAFKA_CONSUMER_GROUP", defaultConsumerGroup())

	l, err := ledger.ForPolicy(getEnv("STOCK_POLICY", string(ledger.PolicyLenient)))
	if err != nil {
		return nil, err
	}
	cfg.StockPolicy = l.Policy()

	cfg.HubSendTimeout, err = time.ParseDuration(getEnv("HUB_SEND_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HUB_SEND_TIMEOUT: %w", err)
	}
	if cfg.HubSendTimeout < time.Second {
		return nil, fmt.Errorf("invalid HUB_SEND_TIMEOUT: %s is below the 1s minimum", cfg.HubSendTimeout)
	}

	cfg.HubSendConcurrency, err = strconv.Atoi(getEnv("HUB_SEND_CONCURRENCY", "16"))
	if err != nil || cfg.HubSendConcurrency < 1 {
		return nil, fmt.Errorf("invalid HUB_SEND_CONCURRENCY %q", os.Getenv("HUB_SEND_CONCURRENCY"))
	}

	cfg.SeedProducts, err = strconv.ParseBool(getEnv("SEED_PRODUCTS", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_PRODUCTS: %w", err)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

// defaultConsumerGroup is unique per host so every instance's hub sees every
// notification.
func defaultConsumerGroup() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "kiosk-hub"
	}
	return "kiosk-hub-" + host
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
