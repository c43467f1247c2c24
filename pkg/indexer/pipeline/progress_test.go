package pipeline

import (
	"errors"
	"testing"
	"time"

	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/stretchr/testify/require"
)

func TestProgress(t *testing.T) {
	p := NewProgress()
	wm := *indexermodels.SeedWatermark(AuctionsPipeline, 10)

	p.Started(AuctionsPipeline, wm)
	p.Started(OfferEventsPipeline, wm)
	p.Failed(AuctionsPipeline, errors.New("db down"))

	s, ok := p.Get(AuctionsPipeline)
	require.True(t, ok)
	require.True(t, s.Running)
	require.Equal(t, "db down", s.LastError)
	require.Equal(t, int64(9), s.CheckpointHiInclusive)

	at := time.Unix(1_700_000_000, 0)
	p.Committed(AuctionsPipeline, wm.Advance(10, 0, 5, 6), at)
	s, _ = p.Get(AuctionsPipeline)
	require.Empty(t, s.LastError)
	require.Equal(t, int64(10), s.CheckpointHiInclusive)
	require.Equal(t, uint64(1), s.Committed)
	require.Equal(t, at, s.LastCommitAt)

	p.Stopped(OfferEventsPipeline)
	snap := p.Snapshot()
	require.Len(t, snap, 2)
	require.Equal(t, AuctionsPipeline, snap[0].Pipeline)
	require.Equal(t, OfferEventsPipeline, snap[1].Pipeline)
	require.False(t, snap[1].Running)
}
