package indexer

import (
	"context"
)

// initEnums creates the status enum types
func (db *DB) initEnums(ctx context.Context) error {
	query := `
		DO $$ BEGIN
			CREATE TYPE auction_status AS ENUM ('created', 'cancelled', 'finalized');
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;

		DO $$ BEGIN
			CREATE TYPE offer_status AS ENUM (
				'placed', 'cancelled', 'accepted', 'declined', 'countered', 'accepted_countered'
			);
		EXCEPTION
			WHEN duplicate_object THEN null;
		END $$;
	`

	return db.Exec(ctx, query)
}

// initEventsCursor creates the events_cursor table
// The unique checkpoint column is the replay guard
func (db *DB) initEventsCursor(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS events_cursor (
			id SERIAL PRIMARY KEY,
			checkpoint VARCHAR NOT NULL UNIQUE,
			tx_digest VARCHAR NOT NULL
		)
	`

	return db.Exec(ctx, query)
}

func (db *DB) initOfferPlaced(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS offer_placed (
			id SERIAL PRIMARY KEY,
			domain_name VARCHAR NOT NULL,
			address VARCHAR NOT NULL,
			value VARCHAR NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			tx_digest VARCHAR NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_offer_placed_domain ON offer_placed(domain_name);
	`

	return db.Exec(ctx, query)
}

func (db *DB) initOfferCancelled(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS offer_cancelled (
			id SERIAL PRIMARY KEY,
			domain_name VARCHAR NOT NULL,
			address VARCHAR NOT NULL,
			value VARCHAR NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			tx_digest VARCHAR NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_offer_cancelled_domain ON offer_cancelled(domain_name);
	`

	return db.Exec(ctx, query)
}

// initOffers creates the offers table holding the current state of each offer
func (db *DB) initOffers(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS offers (
			id SERIAL PRIMARY KEY,
			domain_name VARCHAR NOT NULL,
			buyer VARCHAR NOT NULL,
			initial_value VARCHAR NOT NULL,
			value VARCHAR NOT NULL,
			owner VARCHAR,
			status offer_status NOT NULL DEFAULT 'placed',
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			last_tx_digest VARCHAR NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_offers_domain_buyer ON offers(domain_name, buyer, created_at DESC);
	`

	return db.Exec(ctx, query)
}

func (db *DB) initAuctions(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS auctions (
			auction_id VARCHAR PRIMARY KEY,
			domain_name VARCHAR NOT NULL,
			owner VARCHAR NOT NULL,
			start_time BIGINT NOT NULL,
			end_time BIGINT NOT NULL,
			min_bid VARCHAR NOT NULL,
			winner VARCHAR,
			amount VARCHAR,
			status auction_status NOT NULL DEFAULT 'created',
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			last_tx_digest VARCHAR NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_auctions_domain ON auctions(domain_name);
	`

	return db.Exec(ctx, query)
}

func (db *DB) initBids(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS bids (
			id SERIAL PRIMARY KEY,
			auction_id VARCHAR NOT NULL REFERENCES auctions(auction_id),
			domain_name VARCHAR NOT NULL,
			bidder VARCHAR NOT NULL,
			amount VARCHAR NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			tx_digest VARCHAR NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_bids_auction ON bids(auction_id);
	`

	return db.Exec(ctx, query)
}

// initWatermarks creates the per-pipeline progress table
func (db *DB) initWatermarks(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS watermarks (
			pipeline TEXT PRIMARY KEY,
			epoch_hi_inclusive BIGINT NOT NULL,
			checkpoint_hi_inclusive BIGINT NOT NULL,
			tx_hi BIGINT NOT NULL,
			timestamp_ms_hi_inclusive BIGINT NOT NULL,
			reader_lo BIGINT NOT NULL,
			pruner_timestamp TIMESTAMP NOT NULL,
			pruner_hi BIGINT NOT NULL
		)
	`

	return db.Exec(ctx, query)
}
