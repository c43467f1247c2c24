package db

import (
	"context"

	"github.com/canopy-network/suinsx/pkg/db/models/indexer"
)

// Store is the persistence surface the pipelines run against. Watermarks are only read and
// seeded here; advancing one is a Tx operation so it always rides with the rows it covers.
type Store interface {
	// Watermark returns ErrWatermarkNotFound when the pipeline has never been seeded.
	Watermark(ctx context.Context, pipeline string) (*indexer.Watermark, error)
	// SeedWatermark inserts wm unless a row for the pipeline already exists.
	SeedWatermark(ctx context.Context, wm *indexer.Watermark) error
	// InTx runs fn in one transaction: commit when fn returns nil, rollback otherwise.
	InTx(ctx context.Context, fn func(Tx) error) error
	Ping(ctx context.Context) error
}

// Tx groups the mutations applied while one checkpoint is committed.
type Tx interface {
	// RecordCursor returns false when the checkpoint was already recorded.
	RecordCursor(ctx context.Context, cursor *indexer.EventsCursor) (bool, error)

	InsertOfferPlaced(ctx context.Context, rows []*indexer.OfferPlaced) error
	InsertOfferCancelled(ctx context.Context, rows []*indexer.OfferCancelled) error

	InsertOffer(ctx context.Context, offer *indexer.Offer) error
	// LatestOffer returns ErrOfferNotFound when the buyer never offered on the domain.
	LatestOffer(ctx context.Context, domainName, buyer string) (*indexer.Offer, error)
	UpdateOffer(ctx context.Context, offer *indexer.Offer) error

	// InsertAuction returns ErrAuctionExists on a duplicate auction id.
	InsertAuction(ctx context.Context, auction *indexer.Auction) error
	// GetAuction returns ErrAuctionNotFound when no row exists.
	GetAuction(ctx context.Context, auctionID string) (*indexer.Auction, error)
	UpdateAuction(ctx context.Context, auction *indexer.Auction) error
	// InsertBid returns ErrAuctionNotFound when the referenced auction does not exist.
	InsertBid(ctx context.Context, bid *indexer.Bid) error

	// AdvanceWatermark returns ErrWatermarkRegressed unless wm moves strictly forward.
	AdvanceWatermark(ctx context.Context, wm *indexer.Watermark) error
}
