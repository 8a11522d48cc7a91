package cache

import (
	"context"

	"causaldiscovery/application/ports"
	"causaldiscovery/domain/causal"

	"go.uber.org/zap"
)

// Tiered checks a local L1 before a shared L2. L2 hits are promoted into L1
// and writes go to both; an L2 failure degrades to L1 only.
type Tiered struct {
	l1     ports.PathCache
	l2     ports.PathCache
	logger *zap.Logger
}

// NewTiered combines two caches. l2 may be nil.
func NewTiered(l1, l2 ports.PathCache, logger *zap.Logger) *Tiered {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tiered{l1: l1, l2: l2, logger: logger}
}

func (t *Tiered) Get(ctx context.Context, key ports.CacheKey) ([]causal.Path, bool, error) {
	if paths, ok, err := t.l1.Get(ctx, key); err == nil && ok {
		return paths, true, nil
	}
	if t.l2 == nil {
		return nil, false, nil
	}

	paths, ok, err := t.l2.Get(ctx, key)
	if err != nil {
		t.logger.Warn("L2 cache get failed", zap.String("key", key.String()), zap.Error(err))
		return nil, false, nil
	}
	if !ok {
		return nil, false, nil
	}
	if err := t.l1.Set(ctx, key, paths); err != nil {
		t.logger.Debug("L1 promotion failed", zap.String("key", key.String()), zap.Error(err))
	}
	return paths, true, nil
}

func (t *Tiered) Set(ctx context.Context, key ports.CacheKey, paths []causal.Path) error {
	if err := t.l1.Set(ctx, key, paths); err != nil {
		return err
	}
	if t.l2 != nil {
		if err := t.l2.Set(ctx, key, paths); err != nil {
			t.logger.Warn("L2 cache set failed", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return nil
}
