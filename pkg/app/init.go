package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"go-sentinel/pkg/cache"
	"go-sentinel/pkg/config"
	"go-sentinel/pkg/evegateway"
	"go-sentinel/pkg/killboard"
	"go-sentinel/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// AppContext holds the shared application context and dependencies
type AppContext struct {
	Settings         config.Settings
	Store            *cache.Store
	Tiered           *cache.Tiered
	EVEClient        *evegateway.Client
	Scheduler        *killboard.Scheduler
	Killboard        *killboard.Client
	TelemetryManager *logging.TelemetryManager
	ServiceName      string
	sweeper          *cron.Cron
	shutdownFuncs    []func(context.Context) error
}

// InitializeApp initializes common application dependencies
func InitializeApp(serviceName string) (*AppContext, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it: %v", err)
	}

	ctx := context.Background()
	settings := config.Load()

	// Initialize telemetry
	telemetryManager := logging.NewTelemetryManager()
	if err := telemetryManager.Initialize(ctx); err != nil {
		log.Printf("Warning: Failed to initialize telemetry: %v", err)
		// Continue without telemetry rather than failing
	}

	backend, err := openCacheBackend(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache backend: %w", err)
	}
	slog.Info("Cache backend ready", "backend", settings.CacheBackend)

	store := cache.NewStore(backend, settings)
	tiered := cache.NewTiered(cache.NewSession(), store)

	// Startup sweep clears expired and stale-schema entries left from prior runs
	if removed, err := store.Sweep(ctx); err != nil {
		slog.Warn("Startup cache sweep failed", "error", err)
	} else if removed > 0 {
		slog.Info("Startup cache sweep", "removed", removed)
	}

	scheduler := killboard.NewScheduler(killboard.SchedulerConfig{
		MinInterval:    settings.StatsMinInterval,
		RequestTimeout: settings.StatsRequestTimeout,
		MaxRetries:     settings.StatsMaxRetries,
	})
	scheduler.Start()

	appCtx := &AppContext{
		Settings:         settings,
		Store:            store,
		Tiered:           tiered,
		EVEClient:        evegateway.NewClient(),
		Scheduler:        scheduler,
		Killboard:        killboard.NewClient(scheduler, settings),
		TelemetryManager: telemetryManager,
		ServiceName:      serviceName,
	}

	appCtx.startSweeper()

	appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, func(ctx context.Context) error {
		scheduler.Stop()
		return nil
	})
	appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, func(ctx context.Context) error {
		return store.Close()
	})
	if telemetryManager != nil {
		appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, telemetryManager.Shutdown)
	}

	return appCtx, nil
}

func openCacheBackend(settings config.Settings) (cache.Backend, error) {
	switch settings.CacheBackend {
	case "redis":
		return cache.NewRedisBackend(context.Background())
	default:
		return cache.NewBadgerBackend(settings.CacheDir)
	}
}

// startSweeper schedules the periodic cache sweep
func (a *AppContext) startSweeper() {
	a.sweeper = cron.New()
	_, err := a.sweeper.AddFunc("@hourly", func() {
		if removed, err := a.Store.Sweep(context.Background()); err != nil {
			slog.Warn("Periodic cache sweep failed", "error", err)
		} else if removed > 0 {
			slog.Info("Periodic cache sweep", "removed", removed)
		}
	})
	if err != nil {
		slog.Error("Failed to schedule cache sweep", "error", err)
		return
	}
	a.sweeper.Start()
	a.shutdownFuncs = append(a.shutdownFuncs, func(ctx context.Context) error {
		a.sweeper.Stop()
		return nil
	})
}

// Shutdown gracefully shuts down all application dependencies
func (a *AppContext) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application", "service", a.ServiceName)

	for _, shutdown := range a.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}

	slog.Info("Application shutdown completed", "service", a.ServiceName)
	return nil
}

// GetPort returns the port from environment or default
func GetPort(defaultPort string) string {
	return config.GetEnv("PORT", defaultPort)
}
