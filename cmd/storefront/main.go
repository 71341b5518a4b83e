// Storefront BFF - keeps the shopper's cart and wishlist in sync with the
// jewelry API and serves them to the web UI and MCP clients.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/adapter"
	"storefront/internal/clientinfo"
	"storefront/internal/config"
	"storefront/internal/handler"
	"storefront/internal/middleware"
	"storefront/internal/remote"
	"storefront/internal/session"
	"storefront/internal/store"
	"storefront/internal/telemetry"
	"storefront/internal/transport"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// evictInterval is how often idle page sessions are swept.
const evictInterval = time.Minute

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := initLogger(cfg)

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("api_base_url", cfg.Backend.BaseURL),
		slog.String("token_store", cfg.Sessions.TokenStore),
		slog.String("version", version),
	)

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "storefront",
		ServiceVersion: version,
		Environment:    cfg.Environment,
		Endpoint:       cfg.Telemetry.Endpoint,
		SampleRate:     cfg.Telemetry.SampleRate,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("flushing traces", slog.String("error", err.Error()))
		}
	}()

	breaker := remote.DefaultBreakerOptions()
	breaker.OpenTimeout = cfg.Backend.BreakerTimeout
	backend, err := remote.NewBackend(remote.Options{
		BaseURL:    cfg.Backend.BaseURL,
		Timeout:    cfg.Backend.Timeout,
		MaxRetries: cfg.Backend.MaxRetries,
		RetryWait:  cfg.Backend.RetryWait,
		RetryMax:   cfg.Backend.RetryMaxWait,
		RateLimit:  cfg.Backend.RateLimit,
		RateBurst:  cfg.Backend.RateBurst,
		Transport:  transport.New(transport.Options{Chrome: cfg.Backend.ChromeTransport}),
		Logger:     logger,
		Breaker:    breaker,
	})
	if err != nil {
		return fmt.Errorf("creating backend: %w", err)
	}

	creds, ready, closeStore, err := createCredentialStore(cfg)
	if err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}
	defer closeStore()

	registry := store.NewRegistry(func(id string) adapter.Remote {
		return backend.Client(session.Bind(creds, id))
	}, cfg.Pricing.Rules(), cfg.Sessions.IdleTTL, logger)
	defer registry.Close()
	go registry.Run(ctx, evictInterval)

	h := handler.New(handler.Options{
		Sessions:    registry,
		Credentials: creds,
		Catalog: func(id string) adapter.Catalog {
			if id == "" {
				return backend.Anonymous()
			}
			return backend.Client(session.Bind(creds, id))
		},
		GoogleAuthURL:    backend.GoogleAuthURL(),
		Ready:            ready,
		MinClientVersion: cfg.MinClientVersion,
		Logger:           logger,
	})

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Recovery must be outermost to catch panics from the rest of the chain.
	// Metrics sits innermost so it sees the matched route pattern.
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logging(logger),
		clientinfo.Middleware(cfg.MinClientVersion, logger),
		middleware.Metrics,
	)(mux)

	// WriteTimeout is lifted per request by the event stream.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Event streams only end when their session closes, so drop them first.
		stop()
		registry.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// createCredentialStore builds the configured token store, its readiness
// probe and a cleanup func.
func createCredentialStore(cfg *config.Config) (session.Store, func(context.Context) error, func(), error) {
	switch cfg.Sessions.TokenStore {
	case "memory":
		return session.NewMemoryStore(cfg.Sessions.TokenTTL), nil, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Sessions.RedisAddr,
			Password: cfg.Sessions.RedisPassword,
			DB:       cfg.Sessions.RedisDB,
		})
		rs := session.NewRedisStore(client, cfg.Sessions.TokenTTL)
		return rs, rs.Ping, func() { _ = client.Close() }, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported token store: %s", cfg.Sessions.TokenStore)
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON for Cloud Logging; development uses text.
func initLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var logger *slog.Logger
	if cfg.IsProduction() {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	slog.SetDefault(logger)
	return logger
}
