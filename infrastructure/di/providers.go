package di

import (
	"context"
	"fmt"

	"causaldiscovery/application/ports"
	"causaldiscovery/application/services"
	"causaldiscovery/domain/assembly"
	"causaldiscovery/domain/explain"
	"causaldiscovery/domain/grounding"
	"causaldiscovery/domain/ranking"
	"causaldiscovery/infrastructure/config"
	"causaldiscovery/infrastructure/indra"
	"causaldiscovery/infrastructure/observability"
	"causaldiscovery/infrastructure/persistence/cache"
	ddbstore "causaldiscovery/infrastructure/persistence/dynamodb"
	"causaldiscovery/infrastructure/persistence/fixtures"
	"causaldiscovery/pkg/ratelimit"

	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// ProvideCollector creates the Prometheus collector. It is always built so
// /metrics has a registry to serve.
func ProvideCollector(cfg *config.Config) *observability.Collector {
	return observability.NewCollector(cfg.Metrics.Namespace)
}

// ProvideMetricsRecorder selects the collector or a no-op recorder
func ProvideMetricsRecorder(cfg *config.Config, collector *observability.Collector) ports.MetricsRecorder {
	if !cfg.Metrics.Enabled {
		return observability.NoopMetrics{}
	}
	return collector
}

// ProvideTracerProvider initializes OpenTelemetry
func ProvideTracerProvider(ctx context.Context, cfg *config.Config) (*observability.TracerProvider, error) {
	return observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
		EnableDebug: cfg.IsDevelopment(),
	})
}

// ProvideRedisClient connects to Redis when the redis cache provider is
// selected; otherwise it returns nil.
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	if cfg.Cache.Provider != "redis" {
		return nil, nil
	}
	return cache.NewRedisClient(ctx, redisConfig(cfg))
}

// ProvidePathCache builds the runtime cache: memory, or memory in front of Redis
func ProvidePathCache(cfg *config.Config, rdb *goredis.Client, collector *observability.Collector, logger *zap.Logger) ports.PathCache {
	memory := cache.NewMemoryPathCache(cfg.Cache.MaxItems, cfg.Cache.TTL, logger)
	collector.WatchCache("memory", func() (int, int64) {
		stats := memory.GetStats()
		return stats.Items, stats.Evictions
	})
	if rdb == nil {
		return memory
	}
	return cache.NewTiered(memory, cache.NewRedisPathCache(rdb, redisConfig(cfg), logger), logger)
}

func redisConfig(cfg *config.Config) cache.RedisConfig {
	return cache.RedisConfig{
		Addr:      cfg.Cache.RedisAddr,
		DB:        cfg.Cache.RedisDB,
		KeyPrefix: cfg.Cache.KeyPrefix,
		TTL:       cfg.Cache.TTL,
	}
}

// ProvideRateLimiter builds the API rate limiter: shared through Redis when a
// Redis client exists, in process otherwise, nil when disabled.
func ProvideRateLimiter(cfg *config.Config, rdb *goredis.Client) ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	if rdb != nil {
		return ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window, cfg.Cache.KeyPrefix+"ratelimit:")
	}
	return ratelimit.NewSlidingWindowLimiter(cfg.RateLimit.RequestsPerWindow, cfg.RateLimit.Window)
}

// ProvideDynamoDBClient creates a DynamoDB client when a fixture table is configured
func ProvideDynamoDBClient(ctx context.Context, cfg *config.Config) (*awsdynamodb.Client, error) {
	if cfg.Fixtures.DynamoDBTable == "" {
		return nil, nil
	}
	return ddbstore.NewClient(ctx, cfg.Fixtures.AWSRegion)
}

// ProvideFixtureTable wraps the DynamoDB fixture table, nil when unconfigured
func ProvideFixtureTable(cfg *config.Config, client *awsdynamodb.Client, logger *zap.Logger) *ddbstore.FixtureStore {
	if client == nil {
		return nil
	}
	return ddbstore.NewFixtureStore(client, cfg.Fixtures.DynamoDBTable, logger)
}

// ProvideFixtureStore chains the precomputed sources: YAML files first, then the
// built-in fixtures, then the DynamoDB table.
func ProvideFixtureStore(cfg *config.Config, table *ddbstore.FixtureStore, logger *zap.Logger) (ports.FixtureStore, error) {
	var stores []ports.FixtureStore

	if len(cfg.Fixtures.Files) > 0 {
		files := fixtures.NewStore(logger)
		for _, path := range cfg.Fixtures.Files {
			if err := files.LoadFile(path); err != nil {
				return nil, err
			}
		}
		stores = append(stores, files)
	}
	if !cfg.Fixtures.DisableBuiltin {
		stores = append(stores, fixtures.NewBuiltinStore(logger))
	}
	if table != nil {
		stores = append(stores, table)
	}
	return fixtures.NewChain(logger, stores...), nil
}

// ProvideResolver builds the grounding resolver, with MESH enrichment when a
// records file is configured
func ProvideResolver(cfg *config.Config, logger *zap.Logger) (*grounding.Resolver, error) {
	if cfg.Grounding.MeshFile == "" {
		return grounding.NewResolver(logger, nil), nil
	}
	records, err := grounding.LoadMeshRecords(cfg.Grounding.MeshFile)
	if err != nil {
		return nil, err
	}
	return grounding.NewResolver(logger, grounding.NewMeshEnrichment(logger, records)), nil
}

// ProvideGrounder exposes the resolver through its port
func ProvideGrounder(r *grounding.Resolver) ports.Grounder {
	return r
}

// ProvideIndraClient creates the INDRA client unless remote search is disabled
func ProvideIndraClient(cfg *config.Config, collector *observability.Collector, logger *zap.Logger) (*indra.Client, error) {
	if cfg.Indra.Disabled {
		logger.Info("Live INDRA search disabled; serving fixtures and cache only")
		return nil, nil
	}

	var metrics indra.Metrics = observability.NoopMetrics{}
	if cfg.Metrics.Enabled {
		metrics = collector
	}

	return indra.NewClient(logger, indra.Config{
		BaseURL:           cfg.Indra.BaseURL,
		Timeout:           cfg.Indra.Timeout,
		BeliefCutoff:      cfg.Indra.BeliefCutoff,
		KShortest:         cfg.Indra.KShortest,
		FilterCurated:     cfg.Indra.FilterCurated,
		CuratedDBOnly:     cfg.Indra.CuratedDBOnly,
		FplxExpand:        cfg.Indra.FplxExpand,
		AutocompleteLimit: cfg.Indra.AutocompleteLimit,
		Breaker: indra.BreakerConfig{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
			MinRequests:      cfg.Breaker.MinRequests,
		},
	}, metrics)
}

// ProvidePathSource exposes the INDRA client through its port. A disabled
// client yields a nil interface, not a typed nil.
func ProvidePathSource(client *indra.Client) ports.PathSource {
	if client == nil {
		return nil
	}
	return client
}

// ProvidePathSearchService creates the tiered path search
func ProvidePathSearchService(
	pathCache ports.PathCache,
	fixtureStore ports.FixtureStore,
	source ports.PathSource,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *services.PathSearchService {
	return services.NewPathSearchService(pathCache, fixtureStore, source, metrics, logger)
}

// ProvideDiscoveryService assembles the discovery pipeline from the configured policy
func ProvideDiscoveryService(
	cfg *config.Config,
	paths *services.PathSearchService,
	grounder ports.Grounder,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *services.DiscoveryService {
	return services.NewDiscoveryService(
		paths,
		grounder,
		ranking.NewRanker(cfg.Policy),
		assembly.NewAssembler(cfg.Policy, grounding.DefaultCatalog(), assembly.NewModifierTable(nil), logger),
		explain.NewComposer(),
		metrics,
		services.DiscoveryConfig{
			DefaultDepth:      cfg.Discovery.DefaultDepth,
			TopPaths:          cfg.Discovery.TopPaths,
			ReportedPaths:     cfg.Discovery.ReportedPaths,
			Parallelism:       cfg.Discovery.Parallelism,
			RequestTimeout:    cfg.Discovery.RequestTimeout,
			RegulatorBridging: cfg.Discovery.RegulatorBridging,
		},
		logger,
	)
}
