// Package fixtures serves precomputed path lists keyed by source and target.
// Fixtures are used verbatim and take precedence over live search.
package fixtures

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"causaldiscovery/application/ports"
	"causaldiscovery/domain/causal"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Store is an in-memory fixture table. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]Fixture
	logger  *zap.Logger
}

// File is the on-disk fixture format
type File struct {
	Fixtures []Fixture `yaml:"fixtures"`
}

// Fixture is one source/target entry of a fixture file
type Fixture struct {
	Source string        `yaml:"source"`
	Target string        `yaml:"target"`
	Paths  []causal.Path `yaml:"paths"`
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{entries: make(map[string]Fixture), logger: logger}
}

// NewBuiltinStore creates a store holding the curated demo fixtures
func NewBuiltinStore(logger *zap.Logger) *Store {
	s := NewStore(logger)
	for k, paths := range builtinFixtures() {
		source, target, _ := strings.Cut(k, "_to_")
		s.entries[k] = Fixture{Source: source, Target: target, Paths: paths}
	}
	return s
}

// Add registers paths for a pair, replacing any previous entry
func (s *Store) Add(source, target string, paths []causal.Path) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[ports.FixtureKey(source, target)] = Fixture{
		Source: source,
		Target: target,
		Paths:  causal.ClonePaths(paths),
	}
}

// LoadFile adds every fixture of a YAML file
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read fixture file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("failed to parse fixture file %s: %w", path, err)
	}
	for i, fx := range f.Fixtures {
		if fx.Source == "" || fx.Target == "" {
			return fmt.Errorf("fixture %d in %s: source and target are required", i, path)
		}
		s.Add(fx.Source, fx.Target, fx.Paths)
	}

	s.logger.Info("Loaded path fixtures", zap.String("file", path), zap.Int("count", len(f.Fixtures)))
	return nil
}

// Lookup returns a copy of the fixture paths. An empty entry is a miss.
func (s *Store) Lookup(ctx context.Context, source, target string) ([]causal.Path, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fx := s.entries[ports.FixtureKey(source, target)]
	if len(fx.Paths) == 0 {
		return nil, false, nil
	}
	return causal.ClonePaths(fx.Paths), true, nil
}

// Keys lists the stored fixture keys in sorted order
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Fixtures returns copies of every entry ordered by key
func (s *Store) Fixtures() []Fixture {
	keys := s.Keys()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Fixture, 0, len(keys))
	for _, k := range keys {
		fx := s.entries[k]
		fx.Paths = causal.ClonePaths(fx.Paths)
		out = append(out, fx)
	}
	return out
}

// Chain consults fixture stores in order; the first hit wins. A failing store
// is logged and skipped.
type Chain struct {
	stores []ports.FixtureStore
	logger *zap.Logger
}

// NewChain builds a chain. nil stores are ignored.
func NewChain(logger *zap.Logger, stores ...ports.FixtureStore) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Chain{logger: logger}
	for _, s := range stores {
		if s != nil {
			c.stores = append(c.stores, s)
		}
	}
	return c
}

func (c *Chain) Lookup(ctx context.Context, source, target string) ([]causal.Path, bool, error) {
	for i, s := range c.stores {
		paths, ok, err := s.Lookup(ctx, source, target)
		if err != nil {
			c.logger.Warn("Fixture store lookup failed",
				zap.Int("store", i),
				zap.String("source", source),
				zap.String("target", target),
				zap.Error(err))
			continue
		}
		if ok {
			return paths, true, nil
		}
	}
	return nil, false, nil
}
