package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront/internal/config"
	"github.com/fjod/go_cart/storefront/internal/gateway"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/metrics"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/service"
	"github.com/fjod/go_cart/storefront/internal/session"
)

func main() {
	cfg, err := config.Load(getEnv("STOREFRONT_CONFIG", "storefront.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	root := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	log.Logger = root
	zerolog.DefaultContextLogger = &root

	sessions, closeStore, err := newSessionManager(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up session store")
	}
	defer closeStore()

	registry := metrics.NewRegistry()

	gw := gateway.NewHTTPGateway(gateway.Endpoints{
		InventoryURL:    cfg.InventoryServiceURL,
		OrderURL:        cfg.OrderServiceURL,
		CustomerURL:     cfg.CustomerServiceURL,
		OrderHistoryURL: cfg.OrderHistoryServiceURL,
	}, gateway.Options{
		ConnectTimeout:     cfg.BackendConnectTimeout,
		RequestTimeout:     cfg.BackendRequestTimeout,
		BreakerFailures:    cfg.BreakerFailures,
		BreakerOpenTimeout: cfg.BreakerOpenTimeout,
		Observer:           registry,
		Logger:             &root,
	})

	var events service.EventPublisher
	if cfg.PublishingEnabled() {
		p := publisher.NewOrderEventPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer func() {
			if err := p.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close kafka writer")
			}
		}()
		events = p
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("order events enabled")
	}

	storefront := service.NewStorefrontService(gw, sessions, events, registry)
	handler := h.NewStorefrontHandler(storefront, cfg.RequestTimeout)
	router := h.NewRouter(handler, registry.Handler(), root, h.RouterConfig{
		RequestTimeout:      cfg.RequestTimeout,
		SessionTTL:          cfg.SessionTTL,
		SessionCookieSecure: cfg.SessionCookieSecure,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("sessions", cfg.SessionBackend).Msg("storefront starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// newSessionManager picks the session store. With Redis the session lock lives
// in Redis too, so replicas sharing the store also share the lock.
func newSessionManager(cfg *config.Config) (*session.Manager, func(), error) {
	if cfg.SessionBackend == config.SessionBackendMemory {
		store := session.NewMemoryStore(cfg.SessionTTL)
		return session.NewManager(store), func() { _ = store.Close() }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	manager := session.NewManagerWithLocker(
		session.NewRedisStore(client, cfg.SessionTTL),
		session.NewRedisLocker(client, cfg.SessionLockLease),
	)
	return manager, func() { _ = client.Close() }, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
