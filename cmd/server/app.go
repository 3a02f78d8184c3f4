package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/studiolore/mediacore/internal/batch"
	"github.com/studiolore/mediacore/internal/cache"
	"github.com/studiolore/mediacore/internal/config"
	"github.com/studiolore/mediacore/internal/generation"
	"github.com/studiolore/mediacore/internal/platform/gemini"
	"github.com/studiolore/mediacore/internal/platform/logger"
)

// application holds the long-lived components, constructed once at startup
// and passed by reference to everything that needs them.
type application struct {
	config *config.Config
	logger *slog.Logger

	dispatcher   *batch.Dispatcher
	payloadCache *cache.ByteCache
	mediaCache   *cache.MediaCache

	// generator is nil when no LLM API key is configured
	generator generation.Generator
}

// newApplication loads configuration and wires up application components.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"batch_max_concurrent", cfg.Batch.MaxConcurrent)

	dispatcher, err := batch.NewDispatcher(appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	payloadCache, err := cache.NewByteCache(cache.ByteCacheConfig{
		MaxTotalBytes: cfg.Cache.PayloadMaxTotalBytes,
		MaxEntryBytes: cfg.Cache.PayloadMaxEntryBytes,
		TTL:           cfg.Cache.PayloadTTL(),
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create payload cache: %w", err)
	}

	mediaCache, err := cache.NewMediaCache(cache.MediaCacheConfig{
		MaxEntries: cfg.Cache.MediaMaxEntries,
		TTL:        cfg.Cache.MediaTTL(),
	}, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create media cache: %w", err)
	}

	app := &application{
		config:       cfg,
		logger:       appLogger,
		dispatcher:   dispatcher,
		payloadCache: payloadCache,
		mediaCache:   mediaCache,
	}

	if cfg.LLM.GeminiAPIKey != "" {
		gen, err := gemini.NewGenerator(ctx, appLogger, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create generator: %w", err)
		}
		app.generator = gen
		appLogger.Info("generation enabled", "model", cfg.LLM.ModelName)
	} else {
		appLogger.Info("generation disabled, no LLM API key configured")
	}

	return app, nil
}

// cleanup releases resources before shutdown.
func (app *application) cleanup() {
	app.logger.Info("application cleanup complete",
		"payload_cache_entries", app.payloadCache.Stats().Entries,
		"media_cache_entries", app.mediaCache.Stats().Entries)
}
