package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/gin-gonic/gin"

	"github.com/egannguyen/kiosk-ordering/internal/config"
	deliveryhttp "github.com/egannguyen/kiosk-ordering/internal/delivery/http"
	"github.com/egannguyen/kiosk-ordering/internal/delivery/ws"
	"github.com/egannguyen/kiosk-ordering/internal/hub"
	"github.com/egannguyen/kiosk-ordering/internal/ledger"
	"github.com/egannguyen/kiosk-ordering/internal/messaging"
	"github.com/egannguyen/kiosk-ordering/internal/messaging/kafka"
	"github.com/egannguyen/kiosk-ordering/internal/repository"
	"github.com/egannguyen/kiosk-ordering/internal/repository/memory"
	"github.com/egannguyen/kiosk-ordering/internal/repository/postgres"
	"github.com/egannguyen/kiosk-ordering/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Kiosk exited", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetLogLoggerLevel(cfg.LogLevel)
	if cfg.LogLevel > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Telemetry ---
	if cfg.OTLPEndpoint != "" {
		shutdownTelemetry, err := initTelemetry(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				slog.Error("Error shutting down telemetry", "err", err)
			}
		}()
	}

	// --- Storage ---
	store, err := openStore(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()

	stock, err := ledger.ForPolicy(string(cfg.StockPolicy))
	if err != nil {
		return err
	}

	// --- Notification bus ---
	logger := watermill.NewSlogLogger(slog.Default())

	var bus messaging.Bus
	if len(cfg.KafkaBrokers) > 0 {
		bus, err = kafka.NewBus(kafka.Config{Brokers: cfg.KafkaBrokers, ConsumerGroup: cfg.KafkaConsumerGroup}, logger)
		if err != nil {
			return err
		}
		slog.Info("Using kafka notification bus", "brokers", cfg.KafkaBrokers, "group", cfg.KafkaConsumerGroup)
	} else {
		bus = messaging.NewGoChannelBus(logger)
		slog.Info("Using in-process notification bus")
	}
	defer bus.Close()

	notifier := messaging.NewNotifier(bus.Publisher)
	notifications := hub.New(hub.Config{SendTimeout: cfg.HubSendTimeout, Concurrency: cfg.HubSendConcurrency})

	relay, err := messaging.NewRelay(bus.Subscriber, notifications, logger)
	if err != nil {
		return err
	}
	relayErr := make(chan error, 1)
	go func() {
		relayErr <- relay.Run(ctx)
	}()
	select {
	case <-relay.Running():
	case err := <-relayErr:
		return err
	}

	// --- Services ---
	carts := service.NewCartService(store)
	orders := service.NewOrderService(store, stock, notifier)
	products := service.NewProductService(store, stock, notifier)

	if cfg.SeedProducts {
		if err := products.Seed(ctx, seedCatalog()); err != nil {
			return err
		}
	}

	// --- HTTP API ---
	r := deliveryhttp.NewRouter(cfg.ServiceName)
	deliveryhttp.NewHandler(carts, orders, products, notifications).RegisterRoutes(r)
	ws.NewHandler(notifications).RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server starting", "addr", cfg.HTTPAddr, "stock_policy", stock.Policy())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		slog.Error("HTTP server error", "err", err)
	case err = <-relayErr:
		slog.Error("Notification relay stopped", "err", err)
	}

	slog.Info("Shutting down...")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()

	if serr := httpServer.Shutdown(shutdownCtx); serr != nil {
		slog.Error("HTTP server shutdown failed", "err", serr)
	}
	// Upgraded connections are hijacked and not covered by Shutdown.
	notifications.Shutdown()
	if rerr := relay.Close(); rerr != nil {
		slog.Error("Relay shutdown failed", "err", rerr)
	}
	return err
}

func openStore(dsn string) (repository.Store, error) {
	if dsn == "" {
		slog.Info("DATABASE_URL not set, using in-memory store")
		return memory.NewStore(), nil
	}
	db, err := postgres.InitDB(dsn)
	if err != nil {
		return nil, err
	}
	return postgres.NewStore(db), nil
}
