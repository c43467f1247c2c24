package indexer

import (
	"context"
	"fmt"

	indexerstore "github.com/canopy-network/suinsx/pkg/db"
	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/db/postgres"
	"github.com/jackc/pgx/v5"
)

var _ indexerstore.Tx = (*tx)(nil)

// tx binds the table operations to one open transaction.
type tx struct {
	exec postgres.Executor
}

// RecordCursor inserts the cursor row, reporting false when the checkpoint is already there.
func (t *tx) RecordCursor(ctx context.Context, cursor *indexermodels.EventsCursor) (bool, error) {
	query := `
		INSERT INTO events_cursor (checkpoint, tx_digest)
		VALUES ($1, $2)
		ON CONFLICT (checkpoint) DO NOTHING
		RETURNING id
	`

	err := t.exec.QueryRow(ctx, query, cursor.Checkpoint, cursor.TxDigest).Scan(&cursor.ID)
	switch {
	case err == nil:
		return true, nil
	case postgres.IsNoRows(err), postgres.IsUniqueViolation(err):
		return false, nil
	default:
		return false, fmt.Errorf("record cursor %s: %w", cursor.Checkpoint, err)
	}
}

func (t *tx) InsertOfferPlaced(ctx context.Context, rows []*indexermodels.OfferPlaced) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO offer_placed (domain_name, address, value, created_at, tx_digest)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, row := range rows {
		batch.Queue(query, row.DomainName, row.Address, row.Value, row.CreatedAt, row.TxDigest)
	}

	return fmtInsertError(indexermodels.OfferPlacedTableName, executeBatch(ctx, t.exec, batch))
}

func (t *tx) InsertOfferCancelled(ctx context.Context, rows []*indexermodels.OfferCancelled) error {
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO offer_cancelled (domain_name, address, value, created_at, tx_digest)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, row := range rows {
		batch.Queue(query, row.DomainName, row.Address, row.Value, row.CreatedAt, row.TxDigest)
	}

	return fmtInsertError(indexermodels.OfferCancelledTableName, executeBatch(ctx, t.exec, batch))
}

func (t *tx) InsertOffer(ctx context.Context, offer *indexermodels.Offer) error {
	query := `
		INSERT INTO offers (
			domain_name, buyer, initial_value, value, owner, status,
			updated_at, created_at, last_tx_digest
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := t.exec.QueryRow(ctx, query,
		offer.DomainName, offer.Buyer, offer.InitialValue, offer.Value, offer.Owner,
		string(offer.Status), offer.UpdatedAt, offer.CreatedAt, offer.LastTxDigest,
	).Scan(&offer.ID)
	return fmtInsertError(indexermodels.OffersTableName, err)
}

// LatestOffer returns the most recent offer a buyer placed on a domain.
func (t *tx) LatestOffer(ctx context.Context, domainName, buyer string) (*indexermodels.Offer, error) {
	query := `
		SELECT id, domain_name, buyer, initial_value, value, owner, status::text,
			updated_at, created_at, last_tx_digest
		FROM offers
		WHERE domain_name = $1 AND buyer = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var offer indexermodels.Offer
	var status string
	err := t.exec.QueryRow(ctx, query, domainName, buyer).Scan(
		&offer.ID, &offer.DomainName, &offer.Buyer, &offer.InitialValue, &offer.Value, &offer.Owner,
		&status, &offer.UpdatedAt, &offer.CreatedAt, &offer.LastTxDigest,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, indexerstore.ErrOfferNotFound
		}
		return nil, fmt.Errorf("query latest offer %s/%s: %w", domainName, buyer, err)
	}
	offer.Status = indexermodels.OfferStatus(status)

	return &offer, nil
}

func (t *tx) UpdateOffer(ctx context.Context, offer *indexermodels.Offer) error {
	query := `
		UPDATE offers SET
			value = $2,
			owner = $3,
			status = $4,
			updated_at = $5,
			last_tx_digest = $6
		WHERE id = $1
	`

	_, err := t.exec.Exec(ctx, query,
		offer.ID, offer.Value, offer.Owner, string(offer.Status), offer.UpdatedAt, offer.LastTxDigest,
	)
	if err != nil {
		return fmt.Errorf("update offer %d: %w", offer.ID, err)
	}
	return nil
}

// InsertAuction never overwrites: a second create for the same id is ErrAuctionExists.
func (t *tx) InsertAuction(ctx context.Context, auction *indexermodels.Auction) error {
	query := `
		INSERT INTO auctions (
			auction_id, domain_name, owner, start_time, end_time, min_bid,
			winner, amount, status, updated_at, created_at, last_tx_digest
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (auction_id) DO NOTHING
	`

	tag, err := t.exec.Exec(ctx, query,
		auction.AuctionID, auction.DomainName, auction.Owner, auction.StartTime, auction.EndTime,
		auction.MinBid, auction.Winner, auction.Amount, string(auction.Status),
		auction.UpdatedAt, auction.CreatedAt, auction.LastTxDigest,
	)
	if err != nil {
		return fmtInsertError(indexermodels.AuctionsTableName, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", indexerstore.ErrAuctionExists, auction.AuctionID)
	}
	return nil
}

func (t *tx) GetAuction(ctx context.Context, auctionID string) (*indexermodels.Auction, error) {
	query := `
		SELECT auction_id, domain_name, owner, start_time, end_time, min_bid,
			winner, amount, status::text, updated_at, created_at, last_tx_digest
		FROM auctions
		WHERE auction_id = $1
		FOR UPDATE
	`

	var auction indexermodels.Auction
	var status string
	err := t.exec.QueryRow(ctx, query, auctionID).Scan(
		&auction.AuctionID, &auction.DomainName, &auction.Owner, &auction.StartTime, &auction.EndTime,
		&auction.MinBid, &auction.Winner, &auction.Amount, &status,
		&auction.UpdatedAt, &auction.CreatedAt, &auction.LastTxDigest,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, fmt.Errorf("%w: %s", indexerstore.ErrAuctionNotFound, auctionID)
		}
		return nil, fmt.Errorf("query auction %s: %w", auctionID, err)
	}
	auction.Status = indexermodels.AuctionStatus(status)

	return &auction, nil
}

func (t *tx) UpdateAuction(ctx context.Context, auction *indexermodels.Auction) error {
	query := `
		UPDATE auctions SET
			winner = $2,
			amount = $3,
			status = $4,
			updated_at = $5,
			last_tx_digest = $6
		WHERE auction_id = $1
	`

	tag, err := t.exec.Exec(ctx, query,
		auction.AuctionID, auction.Winner, auction.Amount, string(auction.Status),
		auction.UpdatedAt, auction.LastTxDigest,
	)
	if err != nil {
		return fmt.Errorf("update auction %s: %w", auction.AuctionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", indexerstore.ErrAuctionNotFound, auction.AuctionID)
	}
	return nil
}

func (t *tx) InsertBid(ctx context.Context, bid *indexermodels.Bid) error {
	query := `
		INSERT INTO bids (auction_id, domain_name, bidder, amount, created_at, tx_digest)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := t.exec.QueryRow(ctx, query,
		bid.AuctionID, bid.DomainName, bid.Bidder, bid.Amount, bid.CreatedAt, bid.TxDigest,
	).Scan(&bid.ID)
	if postgres.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s", indexerstore.ErrAuctionNotFound, bid.AuctionID)
	}
	return fmtInsertError(indexermodels.BidsTableName, err)
}

// AdvanceWatermark only moves checkpoint_hi_inclusive forward. The guard makes a stale or
// replayed commit fail instead of rewinding progress.
func (t *tx) AdvanceWatermark(ctx context.Context, wm *indexermodels.Watermark) error {
	query := `
		UPDATE watermarks SET
			epoch_hi_inclusive = $2,
			checkpoint_hi_inclusive = $3,
			tx_hi = $4,
			timestamp_ms_hi_inclusive = $5
		WHERE pipeline = $1 AND checkpoint_hi_inclusive < $3
	`

	tag, err := t.exec.Exec(ctx, query,
		wm.Pipeline, wm.EpochHiInclusive, wm.CheckpointHiInclusive, wm.TxHi, wm.TimestampMsHiInclusive,
	)
	if err != nil {
		return fmt.Errorf("advance watermark %s: %w", wm.Pipeline, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s to %d", indexerstore.ErrWatermarkRegressed, wm.Pipeline, wm.CheckpointHiInclusive)
	}
	return nil
}

func executeBatch(ctx context.Context, exec postgres.Executor, batch *pgx.Batch) error {
	br := exec.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch statement %d failed: %w", i, err)
		}
	}

	return nil
}

func fmtInsertError(entity string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to insert %s: %w", entity, err)
	}
	return nil
}
