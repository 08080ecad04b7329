package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/lexiq/internal/adapters/driven/ai"
	"github.com/custodia-labs/lexiq/internal/adapters/driven/storage/memory"
	redisstore "github.com/custodia-labs/lexiq/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/lexiq/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/lexiq/internal/core/domain"
	"github.com/custodia-labs/lexiq/internal/core/ports/driven"
	"github.com/custodia-labs/lexiq/internal/core/services"
	"github.com/custodia-labs/lexiq/internal/logger"
	"github.com/custodia-labs/lexiq/internal/metrics"
	"github.com/custodia-labs/lexiq/internal/postprocessors/chunker"
)

var engineLog = logger.For("engine")

// engine wires settings into sessions of re-analysis policies.
// All sessions share the analyzer, the persistent result store and the
// metrics recorder. Each session keeps its own memory cache.
type engine struct {
	settings *domain.AppSettings
	backend  *ai.Backend
	store    driven.ResultStore
	metrics  *metrics.Recorder
	sessions *services.SessionManager
}

// openEngine loads settings and builds the analyzer and cache store.
func openEngine(ctx context.Context) (*engine, error) {
	if settingsService == nil {
		return nil, errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	backend, err := newAnalyzer(settings, promptStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	store, err := newResultStore(ctx, settings.Cache)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("failed to open %s cache: %w", settings.Cache.Backend, err)
	}

	e := &engine{
		settings: settings,
		backend:  backend,
		store:    store,
		metrics:  metrics.New(),
	}
	e.sessions = services.NewSessionManager(e.newPolicy)

	engineLog.Debug("analyzer=%s cache=%s", backend.Analyzer.Name(), settings.Cache.Backend)
	return e, nil
}

// newPolicy builds a policy with a fresh memory cache over the shared store.
func (e *engine) newPolicy() *services.ReanalysisPolicy {
	es := e.settings.Engine

	cache := services.NewAnalysisCache(
		services.WithMaxEntries(e.settings.Cache.MaxEntries),
		services.WithResultStore(e.store),
		services.WithCacheMetrics(e.metrics),
	)

	orchestrator := services.NewOrchestrator(
		e.backend.Analyzer,
		chunker.New(chunker.WithChunkSize(es.SingleCallLimit)),
		services.WithLimits(es.SingleCallLimit, es.MaxDocumentLength),
		services.WithConcurrency(es.Concurrency),
		services.WithRateLimit(es.RequestsPerSecond),
		services.WithWeights(es.Weights),
		services.WithOrchestratorMetrics(e.metrics),
	)

	return services.NewReanalysisPolicy(cache, orchestrator, es, services.WithPolicyMetrics(e.metrics))
}

// Close releases the analyzer and the store.
func (e *engine) Close() error {
	e.backend.Close()
	return e.store.Close()
}

// openResultStore opens the persistent layer for the configured backend.
func openResultStore(ctx context.Context, settings domain.CacheSettings) (driven.ResultStore, error) {
	switch settings.Backend {
	case domain.CacheMemory, "":
		return memory.NewResultStore(), nil
	case domain.CacheSQLite:
		store, err := sqlite.NewStore("")
		if err != nil {
			return nil, err
		}
		return store, nil
	case domain.CacheRedis:
		store, err := redisstore.Dial(ctx, redisstore.Config{Addr: settings.RedisAddr})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: cache backend %q", domain.ErrInvalidInput, settings.Backend)
	}
}

// serveMetrics exposes the engine metrics on addr in the background until
// ctx ends. An empty addr does nothing.
func (e *engine) serveMetrics(ctx context.Context, addr string) {
	if addr == "" {
		return
	}
	go func() {
		if err := e.metrics.Serve(ctx, addr); err != nil {
			logger.Warn("metrics server stopped: %v", err)
		}
	}()
}
