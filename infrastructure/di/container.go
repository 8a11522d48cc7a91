package di

import (
	"context"

	"causaldiscovery/application/ports"
	"causaldiscovery/application/services"
	"causaldiscovery/domain/grounding"
	"causaldiscovery/infrastructure/config"
	"causaldiscovery/infrastructure/observability"
	ddbstore "causaldiscovery/infrastructure/persistence/dynamodb"
	"causaldiscovery/pkg/ratelimit"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	Collector    *observability.Collector
	Tracer       *observability.TracerProvider
	Redis        *goredis.Client
	PathCache    ports.PathCache
	RateLimiter  ratelimit.Limiter
	FixtureTable *ddbstore.FixtureStore
	Fixtures     ports.FixtureStore
	Resolver     *grounding.Resolver
	PathSource   ports.PathSource
	PathSearch   *services.PathSearchService
	Discovery    *services.DiscoveryService
}

// Shutdown flushes traces, closes Redis and syncs the logger
func (c *Container) Shutdown(ctx context.Context) {
	if c.Tracer != nil {
		if err := c.Tracer.Shutdown(ctx); err != nil {
			c.Logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("Redis close failed", zap.Error(err))
		}
	}
	_ = c.Logger.Sync()
}
