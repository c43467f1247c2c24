package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/canopy-network/suinsx/pkg/db"
	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/indexer/events"
	"github.com/canopy-network/suinsx/pkg/metrics"
)

// AuctionsHandler maintains the auctions table and appends bids. Auctions are the only rows
// updated in place, always through the status state machine.
type AuctionsHandler struct{}

func (AuctionsHandler) Name() string { return AuctionsPipeline }

func (AuctionsHandler) Wants(kind events.Kind) bool {
	switch kind {
	case events.KindAuctionCreated, events.KindBidPlaced, events.KindAuctionFinalized, events.KindAuctionCancelled:
		return true
	}
	return false
}

func (h AuctionsHandler) Apply(ctx context.Context, tx db.Tx, batch *Batch, res *Result) error {
	for _, ev := range batch.Events {
		var err error
		switch e := ev.(type) {
		case events.AuctionCreated:
			err = h.create(ctx, tx, e)
		case events.BidPlaced:
			err = h.bid(ctx, tx, e)
		case events.AuctionFinalized:
			err = h.update(ctx, tx, e.AuctionID, func(a *indexermodels.Auction) error {
				return a.Finalize(e.Winner, e.Amount.String(), e.Timestamp, e.TxDigest)
			})
		case events.AuctionCancelled:
			err = h.update(ctx, tx, e.AuctionID, func(a *indexermodels.Auction) error {
				return a.Cancel(e.Timestamp, e.TxDigest)
			})
		default:
			return fmt.Errorf("auctions: unexpected %s", ev.Kind())
		}

		meta := ev.Metadata()
		var te *indexermodels.TransitionError
		switch {
		case err == nil:
			res.Rows++
			res.countEvent(ev.Kind())
		case errors.As(err, &te):
			res.anomaly(metrics.ReasonIllegalTransition, meta, err)
		case errors.Is(err, db.ErrAuctionNotFound) && batch.SkipOrphans:
			reason := metrics.ReasonUnknownAuction
			if ev.Kind() == events.KindBidPlaced {
				reason = metrics.ReasonOrphanBid
			}
			res.anomaly(reason, meta, err)
		default:
			return err
		}
	}
	return nil
}

func (AuctionsHandler) create(ctx context.Context, tx db.Tx, e events.AuctionCreated) error {
	return tx.InsertAuction(ctx, &indexermodels.Auction{
		AuctionID:    e.AuctionID,
		DomainName:   e.DomainName,
		Owner:        e.Owner,
		StartTime:    e.StartTime,
		EndTime:      e.EndTime,
		MinBid:       e.MinBid.String(),
		Status:       indexermodels.AuctionStatusCreated,
		UpdatedAt:    e.Timestamp,
		CreatedAt:    e.Timestamp,
		LastTxDigest: e.TxDigest,
	})
}

// bid checks the auction first: a failed foreign key would poison the Postgres transaction,
// while a lookup lets the caller decide whether to skip.
func (AuctionsHandler) bid(ctx context.Context, tx db.Tx, e events.BidPlaced) error {
	if _, err := tx.GetAuction(ctx, e.AuctionID); err != nil {
		return err
	}
	return tx.InsertBid(ctx, &indexermodels.Bid{
		AuctionID:  e.AuctionID,
		DomainName: e.DomainName,
		Bidder:     e.Bidder,
		Amount:     e.Amount.String(),
		CreatedAt:  e.Timestamp,
		TxDigest:   e.TxDigest,
	})
}

func (AuctionsHandler) update(ctx context.Context, tx db.Tx, auctionID string, move func(*indexermodels.Auction) error) error {
	auction, err := tx.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}
	if err := move(auction); err != nil {
		return err
	}
	return tx.UpdateAuction(ctx, auction)
}
