package services

import (
	"context"
	"time"

	"causaldiscovery/application/ports"
	"causaldiscovery/domain/causal"
	"causaldiscovery/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var pathSearchTracer = otel.Tracer("causaldiscovery/services.path_search")

// liveSearchTimeout bounds a shared live lookup once it no longer follows the
// caller that started it
const liveSearchTimeout = 2 * time.Minute

// PathSearchService answers path queries from the runtime cache, the
// precomputed fixtures and finally the live path source, in that order.
// Failures at any tier are logged and treated as "no data".
type PathSearchService struct {
	cache    ports.PathCache
	fixtures ports.FixtureStore
	source   ports.PathSource
	metrics  ports.MetricsRecorder
	logger   *zap.Logger

	// live collapses concurrent identical remote lookups
	live singleflight.Group
}

// NewPathSearchService creates the tiered search. fixtures and source may be nil.
func NewPathSearchService(
	cache ports.PathCache,
	fixtures ports.FixtureStore,
	source ports.PathSource,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *PathSearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopRecorder{}
	}
	return &PathSearchService{
		cache:    cache,
		fixtures: fixtures,
		source:   source,
		metrics:  metrics,
		logger:   logger,
	}
}

// FindPaths returns candidate paths between two grounded entity IDs. It never
// fails: an empty slice means nothing was found anywhere. With allowCache false
// both cache tiers are skipped and the live source is always asked.
func (s *PathSearchService) FindPaths(ctx context.Context, source, target string, maxDepth int, allowCache bool) []causal.Path {
	ctx, span := pathSearchTracer.Start(ctx, "PathSearchService.FindPaths",
		trace.WithAttributes(
			attribute.String("source", source),
			attribute.String("target", target),
			attribute.Int("max_depth", maxDepth),
			attribute.Bool("allow_cache", allowCache),
		))
	defer span.End()

	start := time.Now()
	key := ports.CacheKey{Source: source, Target: target, Depth: maxDepth}

	if allowCache {
		if paths, ok := s.fromRuntimeCache(ctx, key); ok {
			span.SetAttributes(attribute.String("tier", ports.TierRuntime))
			s.metrics.RecordPathSearch(ports.TierRuntime, len(paths), time.Since(start))
			return paths
		}
		if paths, ok := s.fromFixtures(ctx, key); ok {
			span.SetAttributes(attribute.String("tier", ports.TierPrecomputed))
			s.metrics.RecordPathSearch(ports.TierPrecomputed, len(paths), time.Since(start))
			return paths
		}
	}

	paths := s.fromLive(ctx, key)
	span.SetAttributes(attribute.String("tier", ports.TierLive), attribute.Int("paths", len(paths)))
	s.metrics.RecordPathSearch(ports.TierLive, len(paths), time.Since(start))

	if len(paths) == 0 {
		s.logger.Info("No paths found",
			zap.String("source", source),
			zap.String("target", target),
			zap.Int("max_depth", maxDepth))
		return []causal.Path{}
	}
	return paths
}

// SourceHealthy reports whether the live path source answers
func (s *PathSearchService) SourceHealthy(ctx context.Context) bool {
	if s.source == nil {
		return false
	}
	return s.source.HealthCheck(ctx)
}

func (s *PathSearchService) fromRuntimeCache(ctx context.Context, key ports.CacheKey) ([]causal.Path, bool) {
	if s.cache == nil {
		return nil, false
	}
	paths, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Runtime cache lookup failed", zap.String("key", key.String()), zap.Error(err))
		ok = false
	}
	s.metrics.RecordCacheLookup(ports.TierRuntime, ok)
	if !ok {
		return nil, false
	}
	s.logger.Debug("Using cached paths", zap.String("key", key.String()), zap.Int("paths", len(paths)))
	return paths, true
}

func (s *PathSearchService) fromFixtures(ctx context.Context, key ports.CacheKey) ([]causal.Path, bool) {
	if s.fixtures == nil {
		return nil, false
	}
	paths, ok, err := s.fixtures.Lookup(ctx, key.Source, key.Target)
	if err != nil {
		s.logger.Warn("Fixture lookup failed",
			zap.String("source", key.Source),
			zap.String("target", key.Target),
			zap.Error(err))
		ok = false
	}
	s.metrics.RecordCacheLookup(ports.TierPrecomputed, ok)
	if !ok || len(paths) == 0 {
		return nil, false
	}

	s.logger.Info("Using precomputed paths",
		zap.String("source", key.Source),
		zap.String("target", key.Target),
		zap.Int("paths", len(paths)))
	s.store(ctx, key, paths)
	return paths, true
}

func (s *PathSearchService) fromLive(ctx context.Context, key ports.CacheKey) []causal.Path {
	if s.source == nil {
		return nil
	}

	ch := s.live.DoChan(key.String(), func() (interface{}, error) {
		// The shared lookup outlives any single caller; each caller waits on its own ctx below.
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), liveSearchTimeout)
		defer cancel()

		paths, err := s.source.SearchPaths(sctx, key.Source, key.Target, key.Depth)
		if err != nil {
			logf := s.logger.Warn
			if errors.IsUnavailable(err) {
				logf = s.logger.Debug
			}
			logf("Live path search failed",
				zap.String("source", key.Source),
				zap.String("target", key.Target),
				zap.Error(err))
			return []causal.Path(nil), nil
		}
		if len(paths) > 0 {
			s.store(sctx, key, paths)
			s.logger.Info("Found live paths",
				zap.String("source", key.Source),
				zap.String("target", key.Target),
				zap.Int("paths", len(paths)))
		}
		return paths, nil
	})

	select {
	case <-ctx.Done():
		s.logger.Debug("Stopped waiting for live paths",
			zap.String("key", key.String()),
			zap.Error(ctx.Err()))
		return nil
	case res := <-ch:
		// shared results are copied so callers never alias each other
		return causal.ClonePaths(res.Val.([]causal.Path))
	}
}

func (s *PathSearchService) store(ctx context.Context, key ports.CacheKey, paths []causal.Path) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, paths); err != nil {
		s.logger.Warn("Runtime cache write failed", zap.String("key", key.String()), zap.Error(err))
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordCacheLookup(string, bool) {}
func (noopRecorder) RecordPathSearch(string, int, time.Duration) {}
func (noopRecorder) RecordDiscovery(string, int, time.Duration) {}
