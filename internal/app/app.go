// Package app initializes and holds long-lived application services,
// acting as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/webharvest/harvester/internal/clock/system"
	"github.com/webharvest/harvester/internal/config"
	"github.com/webharvest/harvester/internal/content"
	"github.com/webharvest/harvester/internal/firecrawl"
	"github.com/webharvest/harvester/internal/id/uuid"
	"github.com/webharvest/harvester/internal/logging"
	"github.com/webharvest/harvester/internal/metrics"
	"github.com/webharvest/harvester/internal/policy/ratelimit"
	"github.com/webharvest/harvester/internal/scraper"
	"github.com/webharvest/harvester/internal/storage/memory"
	"github.com/webharvest/harvester/internal/storage/postgres"
)

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and passed to the commands that
// need it.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	store   content.Store
	service *scraper.Service
}

// NewApp creates and initializes an App from validated configuration.
// It is the central point for service initialization and fails fast if
// any critical service cannot be brought up.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	metrics.Init()

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.Info("initializing application services")

	clk := system.New()

	var store content.Store
	switch cfg.Database.Provider {
	case "postgres":
		logger.Info("connecting to postgres")
		pgStore, err := postgres.NewContentStore(ctx, postgres.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		}, clk)
		if err != nil {
			return nil, fmt.Errorf("init database: %w", err)
		}
		if err := pgStore.EnsureSchema(ctx); err != nil {
			pgStore.Close()
			return nil, fmt.Errorf("init database: %w", err)
		}
		store = pgStore
	case "memory":
		logger.Info("using in-memory store; content is discarded on exit")
		store = memory.NewContentStore(clk)
	default:
		return nil, fmt.Errorf("unknown database provider: %s", cfg.Database.Provider)
	}

	retry := firecrawl.NewRetryPolicy(cfg.Retry.MaxRetries, cfg.Retry.Delay)
	client, err := firecrawl.NewClient(firecrawl.Config{
		BaseURL: cfg.Firecrawl.URL,
		APIKey:  cfg.Firecrawl.APIKey,
		Timeout: cfg.Firecrawl.Timeout,
	}, retry, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init extraction client: %w", err)
	}

	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.Rate.RequestsPerMinute})
	service := scraper.New(client, store, limiter, clk, uuid.New(), logger)

	logger.Info("application services initialized",
		zap.String("database_provider", cfg.Database.Provider),
		zap.String("firecrawl_url", cfg.Firecrawl.URL),
		zap.Int("targets", len(cfg.Targets)),
	)
	return &App{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: service,
	}, nil
}

// Config returns the validated configuration the app was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Store exposes the configured content store.
func (a *App) Store() content.Store {
	return a.store
}

// Service returns the ingestion orchestrator.
func (a *App) Service() *scraper.Service {
	return a.service
}

// Close gracefully shuts down all services in the App container.
// It is called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	a.store.Close()

	// Flush buffered log entries; best effort since logging itself may
	// be the failing component.
	_ = a.logger.Sync()
}
