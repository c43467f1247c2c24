package pipeline

import (
	"context"
	"testing"

	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/metrics"
	"github.com/stretchr/testify/require"
)

func TestOffersNegotiation(t *testing.T) {
	store := newFakeStore()
	p := newTestProcessor(t, store, OffersPipeline)
	ctx := context.Background()
	wm := seeded(store, OffersPipeline, 1)

	wm, _, err := p.Process(ctx, wm, checkpoint(1, tx(offerPlaced("dave.sui", buyer, 10))))
	require.NoError(t, err)
	wm, _, err = p.Process(ctx, wm, checkpoint(2, tx(counterOffer("dave.sui", owner, buyer, 25))))
	require.NoError(t, err)
	_, res, err := p.Process(ctx, wm, checkpoint(3, tx(acceptCounterOffer("dave.sui", buyer, 25))))
	require.NoError(t, err)
	require.Empty(t, res.Anomalies)

	state := store.snapshot()
	require.Len(t, state.offers, 1)
	offer := state.offers[0]
	require.Equal(t, indexermodels.OfferStatusAcceptedCountered, offer.Status)
	require.Equal(t, "10", offer.InitialValue)
	require.Equal(t, "25", offer.Value)
	require.Equal(t, owner, *offer.Owner)
	require.Equal(t, digest(3, 0), offer.LastTxDigest)
	require.Equal(t, checkpoint(1).Time(), offer.CreatedAt)
	require.Equal(t, checkpoint(3).Time(), offer.UpdatedAt)
}

func TestOffersTargetLatestOffer(t *testing.T) {
	store := newFakeStore()
	p := newTestProcessor(t, store, OffersPipeline)
	wm := seeded(store, OffersPipeline, 1)

	_, _, err := p.Process(context.Background(), wm, checkpoint(1,
		tx(offerPlaced("erin.sui", buyer, 1)),
		tx(offerCancelled("erin.sui", buyer, 1)),
		tx(offerPlaced("erin.sui", buyer, 2)),
		tx(offerAccepted("erin.sui", owner, buyer, 2)),
	))
	require.NoError(t, err)

	state := store.snapshot()
	require.Len(t, state.offers, 2)
	require.Equal(t, indexermodels.OfferStatusCancelled, state.offers[0].Status)
	require.Nil(t, state.offers[0].Owner)
	require.Equal(t, indexermodels.OfferStatusAccepted, state.offers[1].Status)
	require.Equal(t, owner, *state.offers[1].Owner)
}

func TestOffersAnomalies(t *testing.T) {
	store := newFakeStore()
	p := newTestProcessor(t, store, OffersPipeline)
	wm := seeded(store, OffersPipeline, 1)

	_, res, err := p.Process(context.Background(), wm, checkpoint(1,
		tx(offerCancelled("nobody.sui", buyer, 1)),
		tx(offerPlaced("frank.sui", buyer, 3)),
		tx(offerAccepted("frank.sui", owner, buyer, 3)),
		tx(offerCancelled("frank.sui", buyer, 3)),
	))
	require.NoError(t, err)
	require.Len(t, res.Anomalies, 2)
	require.Equal(t, metrics.ReasonMissingOffer, res.Anomalies[0].Reason)
	require.Equal(t, metrics.ReasonIllegalTransition, res.Anomalies[1].Reason)

	state := store.snapshot()
	require.Len(t, state.offers, 1)
	require.Equal(t, indexermodels.OfferStatusAccepted, state.offers[0].Status)
	require.Equal(t, digest(1, 2), state.offers[0].LastTxDigest)
	require.Equal(t, int64(1), state.watermarks[OffersPipeline].CheckpointHiInclusive)
}

func TestNewHandler(t *testing.T) {
	for _, name := range Names {
		h, err := NewHandler(name)
		require.NoError(t, err)
		require.Equal(t, name, h.Name())
	}
	_, err := NewHandler("bids")
	require.Error(t, err)
}
