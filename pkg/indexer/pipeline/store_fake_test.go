package pipeline

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/canopy-network/suinsx/pkg/db"
	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
)

// memState is everything the fake store holds. Transactions work on a clone that replaces
// the committed state only when fn succeeds.
type memState struct {
	cursors        map[string]string
	offerPlaced    []indexermodels.OfferPlaced
	offerCancelled []indexermodels.OfferCancelled
	offers         []indexermodels.Offer
	auctions       map[string]indexermodels.Auction
	bids           []indexermodels.Bid
	watermarks     map[string]indexermodels.Watermark
	nextID         int64
}

func newMemState() *memState {
	return &memState{
		cursors:    map[string]string{},
		auctions:   map[string]indexermodels.Auction{},
		watermarks: map[string]indexermodels.Watermark{},
	}
}

func (s *memState) clone() *memState {
	return &memState{
		cursors:        maps.Clone(s.cursors),
		offerPlaced:    slices.Clone(s.offerPlaced),
		offerCancelled: slices.Clone(s.offerCancelled),
		offers:         slices.Clone(s.offers),
		auctions:       maps.Clone(s.auctions),
		bids:           slices.Clone(s.bids),
		watermarks:     maps.Clone(s.watermarks),
		nextID:         s.nextID,
	}
}

func (s *memState) id() int64 {
	s.nextID++
	return s.nextID
}

// fakeStore is an in-memory db.Store with the same atomicity as a real transaction.
// fail, when set, is consulted before every Tx operation and can abort it.
type fakeStore struct {
	mu    sync.Mutex
	state *memState
	fail  func(op string) error
	txs   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: newMemState()}
}

func (f *fakeStore) snapshot() *memState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.clone()
}

func (f *fakeStore) setFail(fn func(op string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fn
}

func (f *fakeStore) Watermark(_ context.Context, pipeline string) (*indexermodels.Watermark, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		if err := f.fail("Watermark"); err != nil {
			return nil, err
		}
	}
	wm, ok := f.state.watermarks[pipeline]
	if !ok {
		return nil, db.ErrWatermarkNotFound
	}
	return &wm, nil
}

func (f *fakeStore) SeedWatermark(_ context.Context, wm *indexermodels.Watermark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.state.watermarks[wm.Pipeline]; !ok {
		f.state.watermarks[wm.Pipeline] = *wm
	}
	return nil
}

// forceWatermark overwrites a watermark outside any transaction, as an operator reset would.
func (f *fakeStore) forceWatermark(wm indexermodels.Watermark) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.watermarks[wm.Pipeline] = wm
}

func (f *fakeStore) InTx(ctx context.Context, fn func(db.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txs++
	work := f.state.clone()
	if err := fn(&fakeTx{state: work, fail: f.fail}); err != nil {
		return err
	}
	f.state = work
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeTx struct {
	state *memState
	fail  func(op string) error
}

func (t *fakeTx) check(op string) error {
	if t.fail == nil {
		return nil
	}
	return t.fail(op)
}

func (t *fakeTx) RecordCursor(_ context.Context, c *indexermodels.EventsCursor) (bool, error) {
	if err := t.check("RecordCursor"); err != nil {
		return false, err
	}
	if _, ok := t.state.cursors[c.Checkpoint]; ok {
		return false, nil
	}
	t.state.cursors[c.Checkpoint] = c.TxDigest
	c.ID = t.state.id()
	return true, nil
}

func (t *fakeTx) InsertOfferPlaced(_ context.Context, rows []*indexermodels.OfferPlaced) error {
	if err := t.check("InsertOfferPlaced"); err != nil {
		return err
	}
	for _, r := range rows {
		r.ID = t.state.id()
		t.state.offerPlaced = append(t.state.offerPlaced, *r)
	}
	return nil
}

func (t *fakeTx) InsertOfferCancelled(_ context.Context, rows []*indexermodels.OfferCancelled) error {
	if err := t.check("InsertOfferCancelled"); err != nil {
		return err
	}
	for _, r := range rows {
		r.ID = t.state.id()
		t.state.offerCancelled = append(t.state.offerCancelled, *r)
	}
	return nil
}

func (t *fakeTx) InsertOffer(_ context.Context, o *indexermodels.Offer) error {
	if err := t.check("InsertOffer"); err != nil {
		return err
	}
	o.ID = t.state.id()
	t.state.offers = append(t.state.offers, *o)
	return nil
}

func (t *fakeTx) LatestOffer(_ context.Context, domainName, buyer string) (*indexermodels.Offer, error) {
	if err := t.check("LatestOffer"); err != nil {
		return nil, err
	}
	for i := len(t.state.offers) - 1; i >= 0; i-- {
		o := t.state.offers[i]
		if o.DomainName == domainName && o.Buyer == buyer {
			return &o, nil
		}
	}
	return nil, db.ErrOfferNotFound
}

func (t *fakeTx) UpdateOffer(_ context.Context, o *indexermodels.Offer) error {
	if err := t.check("UpdateOffer"); err != nil {
		return err
	}
	for i := range t.state.offers {
		if t.state.offers[i].ID == o.ID {
			t.state.offers[i] = *o
			return nil
		}
	}
	return fmt.Errorf("offer %d missing", o.ID)
}

func (t *fakeTx) InsertAuction(_ context.Context, a *indexermodels.Auction) error {
	if err := t.check("InsertAuction"); err != nil {
		return err
	}
	if _, ok := t.state.auctions[a.AuctionID]; ok {
		return fmt.Errorf("%w: %s", db.ErrAuctionExists, a.AuctionID)
	}
	t.state.auctions[a.AuctionID] = *a
	return nil
}

func (t *fakeTx) GetAuction(_ context.Context, auctionID string) (*indexermodels.Auction, error) {
	if err := t.check("GetAuction"); err != nil {
		return nil, err
	}
	a, ok := t.state.auctions[auctionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", db.ErrAuctionNotFound, auctionID)
	}
	return &a, nil
}

func (t *fakeTx) UpdateAuction(_ context.Context, a *indexermodels.Auction) error {
	if err := t.check("UpdateAuction"); err != nil {
		return err
	}
	if _, ok := t.state.auctions[a.AuctionID]; !ok {
		return fmt.Errorf("%w: %s", db.ErrAuctionNotFound, a.AuctionID)
	}
	t.state.auctions[a.AuctionID] = *a
	return nil
}

func (t *fakeTx) InsertBid(_ context.Context, b *indexermodels.Bid) error {
	if err := t.check("InsertBid"); err != nil {
		return err
	}
	if _, ok := t.state.auctions[b.AuctionID]; !ok {
		return fmt.Errorf("%w: %s", db.ErrAuctionNotFound, b.AuctionID)
	}
	b.ID = t.state.id()
	t.state.bids = append(t.state.bids, *b)
	return nil
}

func (t *fakeTx) AdvanceWatermark(_ context.Context, wm *indexermodels.Watermark) error {
	if err := t.check("AdvanceWatermark"); err != nil {
		return err
	}
	cur, ok := t.state.watermarks[wm.Pipeline]
	if !ok || cur.CheckpointHiInclusive >= wm.CheckpointHiInclusive {
		return fmt.Errorf("%w: %s", db.ErrWatermarkRegressed, wm.Pipeline)
	}
	t.state.watermarks[wm.Pipeline] = *wm
	return nil
}
