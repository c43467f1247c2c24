package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/canopy-network/suinsx/pkg/indexer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkpointBody(seq uint64) types.Checkpoint {
	return types.Checkpoint{
		SequenceNumber:           seq,
		Epoch:                    3,
		TimestampMs:              1_700_000_000_000,
		NetworkTotalTransactions: 42,
		Transactions: []types.Transaction{{
			Digest: "digest",
			Events: []types.RawEvent{{Type: "0x2::offer::OfferPlacedEvent", Contents: []byte{1, 2, 3}}},
		}},
	}
}

func TestHTTPClient_Checkpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/100.json", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(checkpointBody(100))
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL + "/"}})
	cp, err := client.Checkpoint(context.Background(), 100)

	require.NoError(t, err)
	assert.Equal(t, uint64(100), cp.SequenceNumber)
	assert.Equal(t, uint64(42), cp.NetworkTotalTransactions)
	require.Len(t, cp.Transactions, 1)
	assert.Equal(t, []byte{1, 2, 3}, cp.Transactions[0].Events[0].Contents)
}

func TestHTTPClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	_, err := client.Checkpoint(context.Background(), 7)

	require.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestHTTPClient_FallsBackOnServerError(t *testing.T) {
	var primaryHits atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryHits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()
	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(checkpointBody(5))
	}))
	defer secondary.Close()

	client := NewHTTPWithOpts(Opts{
		Endpoints:       []string{primary.URL, secondary.URL},
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	})

	for i := 0; i < 3; i++ {
		cp, err := client.Checkpoint(context.Background(), 5)
		require.NoError(t, err)
		require.Equal(t, uint64(5), cp.SequenceNumber)
	}
	// breaker opened after the second failure
	require.Equal(t, int32(2), primaryHits.Load())
}

func TestHTTPClient_ServerErrorIsNotNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	_, err := client.Checkpoint(context.Background(), 1)

	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCheckpointNotFound)
}

func TestHTTPClient_RejectsMismatchedSequence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(checkpointBody(9))
	}))
	defer server.Close()

	client := NewHTTPWithOpts(Opts{Endpoints: []string{server.URL}})
	_, err := client.Checkpoint(context.Background(), 8)

	require.ErrorContains(t, err, "returned sequence 9")
}

func TestHTTPClient_AcquireHonoursContext(t *testing.T) {
	client := NewHTTPWithOpts(Opts{Endpoints: []string{"http://127.0.0.1:1"}, RPS: 1, Burst: 1})
	client.tokens = 0
	client.lastRefill.Store(time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Checkpoint(ctx, 1)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	bz, err := json.Marshal(checkpointBody(12))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "12.json"), bz, 0o600))

	src := NewLocalSource(dir)

	cp, err := src.Checkpoint(context.Background(), 12)
	require.NoError(t, err)
	require.Equal(t, uint64(12), cp.SequenceNumber)

	_, err = src.Checkpoint(context.Background(), 13)
	require.ErrorIs(t, err, ErrCheckpointNotFound)
}

type countingSource struct {
	calls atomic.Int32
}

func (s *countingSource) Checkpoint(_ context.Context, seq uint64) (*types.Checkpoint, error) {
	s.calls.Add(1)
	if seq >= 100 {
		return nil, ErrCheckpointNotFound
	}
	cp := checkpointBody(seq)
	return &cp, nil
}

func TestCachedSource_SharesFetches(t *testing.T) {
	inner := &countingSource{}
	src := NewCachedSource(inner, 4)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cp, err := src.Checkpoint(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, uint64(1), cp.SequenceNumber)
	}
	require.Equal(t, int32(1), inner.calls.Load())

	_, err := src.Checkpoint(ctx, 100)
	require.ErrorIs(t, err, ErrCheckpointNotFound)
	_, err = src.Checkpoint(ctx, 100)
	require.ErrorIs(t, err, ErrCheckpointNotFound)
	require.Equal(t, int32(3), inner.calls.Load())
}

func TestCachedSource_EvictsLowest(t *testing.T) {
	inner := &countingSource{}
	src := NewCachedSource(inner, 2)
	ctx := context.Background()

	for _, seq := range []uint64{5, 6, 7} {
		_, err := src.Checkpoint(ctx, seq)
		require.NoError(t, err)
	}
	require.Equal(t, 2, src.Len())

	_, err := src.Checkpoint(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, int32(3), inner.calls.Load())

	_, err = src.Checkpoint(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, int32(4), inner.calls.Load())
}
