package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"causaldiscovery/application/ports"
	"causaldiscovery/domain/causal"
	pkgerrors "causaldiscovery/pkg/errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePaths() []causal.Path {
	return []causal.Path{{
		Nodes: []causal.PathNode{{ID: "IL6", Name: "IL6"}, {ID: "CRP", Name: "CRP"}},
		Edges: []causal.PathEdge{{
			Source:        "IL6",
			Target:        "CRP",
			Relationship:  causal.RelationshipIncreases,
			EvidenceCount: 312,
			Belief:        0.98,
			StatementType: "IncreaseAmount",
			Sources:       []string{"PMID:45678901"},
		}},
		Belief: 0.98,
	}}
}

var key = ports.CacheKey{Source: "IL6", Target: "CRP", Depth: 4}

func TestMemoryPathCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPathCache(10, time.Minute, nil)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, key, samplePaths()))
	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, samplePaths(), got)

	// depth is part of the key
	_, ok, _ = c.Get(ctx, ports.CacheKey{Source: "IL6", Target: "CRP", Depth: 3})
	assert.False(t, ok)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 1, stats.Items)
}

func TestMemoryPathCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPathCache(10, time.Minute, nil)
	in := samplePaths()
	require.NoError(t, c.Set(ctx, key, in))

	in[0].Edges[0].Sources[0] = "mutated"
	got, _, _ := c.Get(ctx, key)
	got[0].Nodes[0].ID = "mutated"

	again, _, _ := c.Get(ctx, key)
	assert.Equal(t, samplePaths(), again)
}

func TestMemoryPathCache_TTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPathCache(10, time.Minute, nil)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, key, samplePaths()))
	now = now.Add(2 * time.Minute)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, c.GetStats().Items)
}

func TestMemoryPathCache_LRUEviction(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPathCache(2, time.Minute, nil)
	a := ports.CacheKey{Source: "a", Target: "x", Depth: 4}
	b := ports.CacheKey{Source: "b", Target: "x", Depth: 4}
	d := ports.CacheKey{Source: "d", Target: "x", Depth: 4}

	require.NoError(t, c.Set(ctx, a, nil))
	require.NoError(t, c.Set(ctx, b, nil))
	_, _, _ = c.Get(ctx, a) // a is now most recent
	require.NoError(t, c.Set(ctx, d, nil))

	_, okA, _ := c.Get(ctx, a)
	_, okB, _ := c.Get(ctx, b)
	_, okD, _ := c.Get(ctx, d)
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okD)
	assert.Equal(t, int64(1), c.GetStats().Evictions)
}

func TestMemoryPathCache_EmptyListIsAHit(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPathCache(10, time.Minute, nil)
	require.NoError(t, c.Set(ctx, key, []causal.Path{}))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestMemoryPathCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryPathCache(50, time.Minute, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := ports.CacheKey{Source: "s", Target: "t", Depth: i % 5}
			for j := 0; j < 100; j++ {
				_ = c.Set(ctx, k, samplePaths())
				_, _, _ = c.Get(ctx, k)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 5, c.GetStats().Items)
}

// fakeRedis implements redisStore in memory
type fakeRedis struct {
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
	setErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.getErr != nil {
		return goredis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *goredis.StatusCmd {
	if f.setErr != nil {
		return goredis.NewStatusResult("", f.setErr)
	}
	f.data[key] = string(value.([]byte))
	f.ttls[key] = ttl
	return goredis.NewStatusResult("OK", nil)
}

func TestRedisPathCache(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewRedisPathCache(rdb, RedisConfig{KeyPrefix: "causal:paths:", TTL: 30 * time.Minute}, nil)

	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "redis.Nil is a miss")

	require.NoError(t, c.Set(ctx, key, samplePaths()))
	assert.Contains(t, rdb.data, `causal:paths:"IL6":"CRP":4`)
	assert.Equal(t, 30*time.Minute, rdb.ttls[`causal:paths:"IL6":"CRP":4`])

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, samplePaths(), got)
}

func TestRedisPathCache_Errors(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewRedisPathCache(rdb, RedisConfig{}, nil)

	rdb.data[key.String()] = "{not json"
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "undecodable entries are misses")

	rdb.getErr = errors.New("connection refused")
	_, _, err = c.Get(ctx, key)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeCache))

	rdb.setErr = errors.New("read only replica")
	assert.Error(t, c.Set(ctx, key, samplePaths()))
}

func TestTiered_PromotesL2Hits(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryPathCache(10, time.Minute, nil)
	l2 := NewRedisPathCache(newFakeRedis(), RedisConfig{}, nil)
	require.NoError(t, l2.Set(ctx, key, samplePaths()))

	tiered := NewTiered(l1, l2, nil)
	got, ok, err := tiered.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, samplePaths(), got)

	_, ok, _ = l1.Get(ctx, key)
	assert.True(t, ok, "L2 hit promoted to L1")
}

func TestTiered_WritesBothAndSurvivesL2Failure(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryPathCache(10, time.Minute, nil)
	rdb := newFakeRedis()
	tiered := NewTiered(l1, NewRedisPathCache(rdb, RedisConfig{}, nil), nil)

	require.NoError(t, tiered.Set(ctx, key, samplePaths()))
	assert.Contains(t, rdb.data, key.String())

	rdb.setErr = errors.New("down")
	other := ports.CacheKey{Source: "PM2.5", Target: "IL6", Depth: 4}
	require.NoError(t, tiered.Set(ctx, other, samplePaths()))
	_, ok, _ := l1.Get(ctx, other)
	assert.True(t, ok)

	rdb.getErr = errors.New("down")
	_, ok, err := tiered.Get(ctx, ports.CacheKey{Source: "x", Target: "y", Depth: 1})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTiered_NilL2(t *testing.T) {
	ctx := context.Background()
	tiered := NewTiered(NewMemoryPathCache(10, time.Minute, nil), nil, nil)

	_, ok, err := tiered.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tiered.Set(ctx, key, samplePaths()))
	_, ok, _ = tiered.Get(ctx, key)
	assert.True(t, ok)
}
