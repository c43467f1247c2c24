package rpc

import (
	"context"
	"math"
	"sync"

	"github.com/canopy-network/suinsx/pkg/indexer/types"
	"github.com/puzpuzpuz/xsync/v4"
)

var _ Source = (*CachedSource)(nil)

// CachedSource lets pipelines that run close together share one fetch per checkpoint.
// Once full it evicts the lowest sequence numbers: the slowest pipeline is the only reader
// that could still want them, and it can fetch again.
type CachedSource struct {
	inner    Source
	capacity int
	entries  *xsync.Map[uint64, *types.Checkpoint]
	evictMu  sync.Mutex
}

func NewCachedSource(inner Source, capacity int) *CachedSource {
	if capacity <= 0 {
		capacity = 1
	}
	return &CachedSource{
		inner:    inner,
		capacity: capacity,
		entries:  xsync.NewMap[uint64, *types.Checkpoint](),
	}
}

// Checkpoint returns the cached checkpoint or fetches it. Checkpoints are immutable, so a
// cached value is always valid. Misses are never cached.
func (s *CachedSource) Checkpoint(ctx context.Context, seq uint64) (*types.Checkpoint, error) {
	if cp, ok := s.entries.Load(seq); ok {
		return cp, nil
	}

	cp, err := s.inner.Checkpoint(ctx, seq)
	if err != nil {
		return nil, err
	}

	s.entries.Store(seq, cp)
	s.evict()
	return cp, nil
}

// Len reports the number of cached checkpoints.
func (s *CachedSource) Len() int {
	return s.entries.Size()
}

func (s *CachedSource) evict() {
	s.evictMu.Lock()
	defer s.evictMu.Unlock()

	for s.entries.Size() > s.capacity {
		lowest := uint64(math.MaxUint64)
		s.entries.Range(func(seq uint64, _ *types.Checkpoint) bool {
			if seq < lowest {
				lowest = seq
			}
			return true
		})
		s.entries.Delete(lowest)
	}
}
