package ports

import (
	"context"
	"fmt"
	"time"

	"causaldiscovery/domain/causal"
	"causaldiscovery/domain/grounding"
)

// Cache tiers, as reported to metrics and logs
const (
	TierRuntime     = "runtime"
	TierPrecomputed = "precomputed"
	TierLive        = "live"
)

// CacheKey identifies a runtime cache entry
type CacheKey struct {
	Source string
	Target string
	Depth  int
}

// String encodes the key with quoted parts so IDs containing separators
// cannot collide.
func (k CacheKey) String() string {
	return fmt.Sprintf("%q:%q:%d", k.Source, k.Target, k.Depth)
}

// FixtureKey is the precomputed store key for a source/target pair
func FixtureKey(source, target string) string {
	return fmt.Sprintf("%s_to_%s", source, target)
}

// PathSource is the live mechanistic-path search backend
// This is a port in hexagonal architecture - the application doesn't know about the transport
type PathSource interface {
	// SearchPaths returns candidate paths; an empty result is not an error
	SearchPaths(ctx context.Context, source, target string, maxDepth int) ([]causal.Path, error)

	// HealthCheck reports whether the backend answers
	HealthCheck(ctx context.Context) bool
}

// PathCache is the runtime memo of path lists. Implementations are safe for concurrent use.
type PathCache interface {
	// Get returns (paths, true, nil) on a hit
	Get(ctx context.Context, key CacheKey) ([]causal.Path, bool, error)

	// Set stores paths under key, last writer wins
	Set(ctx context.Context, key CacheKey, paths []causal.Path) error
}

// FixtureStore serves precomputed path lists keyed by source/target
type FixtureStore interface {
	Lookup(ctx context.Context, source, target string) ([]causal.Path, bool, error)
}

// Grounder resolves entity names and knows biomarker regulators
type Grounder interface {
	GroundOne(ctx context.Context, name string) (grounding.Entity, bool)
	GroundStatic(name string) (grounding.Entity, bool)
	Regulators(biomarker string) []string
}

// MetricsRecorder receives pipeline measurements
type MetricsRecorder interface {
	RecordCacheLookup(tier string, hit bool)
	RecordPathSearch(tier string, paths int, duration time.Duration)
	RecordDiscovery(outcome string, paths int, duration time.Duration)
}
