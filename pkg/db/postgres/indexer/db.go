package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	indexerstore "github.com/canopy-network/suinsx/pkg/db"
	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/db/postgres"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ indexerstore.Store = (*DB)(nil)

// DB is the Postgres store behind every pipeline.
type DB struct {
	postgres.Client
}

// NewWithPoolConfig connects to url and makes sure the schema exists.
func NewWithPoolConfig(ctx context.Context, logger *zap.Logger, url string, poolConfig postgres.PoolConfig) (*DB, error) {
	client, err := postgres.New(ctx, logger.With(
		zap.String("component", poolConfig.Component),
	), url, poolConfig)
	if err != nil {
		return nil, err
	}

	indexerDB := &DB{Client: client}
	if err := indexerDB.InitializeDB(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return indexerDB, nil
}

// Close terminates the underlying PostgreSQL connection
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// InitializeDB creates enum types, then the independent tables in parallel, then bids which
// references auctions.
func (db *DB) InitializeDB(ctx context.Context) error {
	initStart := time.Now()
	db.Logger.Info("Initializing indexer database")

	if err := db.initEnums(ctx); err != nil {
		return fmt.Errorf("init enums: %w", err)
	}

	initOps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{indexermodels.EventsCursorTableName, db.initEventsCursor},
		{indexermodels.OfferPlacedTableName, db.initOfferPlaced},
		{indexermodels.OfferCancelledTableName, db.initOfferCancelled},
		{indexermodels.OffersTableName, db.initOffers},
		{indexermodels.AuctionsTableName, db.initAuctions},
		{indexermodels.WatermarksTableName, db.initWatermarks},
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(initOps))

	for _, op := range initOps {
		wg.Add(1)
		go func(name string, fn func(context.Context) error) {
			defer wg.Done()
			db.Logger.Debug("Initializing table", zap.String("table", name))
			if err := fn(ctx); err != nil {
				errChan <- fmt.Errorf("init %s: %w", name, err)
			}
		}(op.name, op.fn)
	}

	wg.Wait()
	close(errChan)

	for err := range errChan {
		return err
	}

	if err := db.initBids(ctx); err != nil {
		return fmt.Errorf("init %s: %w", indexermodels.BidsTableName, err)
	}

	db.Logger.Info("Indexer database initialized successfully",
		zap.Duration("duration", time.Since(initStart)))

	return nil
}

// Watermark reads the stored progress of a pipeline.
func (db *DB) Watermark(ctx context.Context, pipeline string) (*indexermodels.Watermark, error) {
	query := `
		SELECT pipeline, epoch_hi_inclusive, checkpoint_hi_inclusive, tx_hi,
			timestamp_ms_hi_inclusive, reader_lo, pruner_timestamp, pruner_hi
		FROM watermarks
		WHERE pipeline = $1
	`

	var wm indexermodels.Watermark
	err := db.QueryRow(ctx, query, pipeline).Scan(
		&wm.Pipeline, &wm.EpochHiInclusive, &wm.CheckpointHiInclusive, &wm.TxHi,
		&wm.TimestampMsHiInclusive, &wm.ReaderLo, &wm.PrunerTimestamp, &wm.PrunerHi,
	)
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, indexerstore.ErrWatermarkNotFound
		}
		return nil, postgres.Classify(fmt.Errorf("query watermark %s: %w", pipeline, err))
	}

	return &wm, nil
}

// SeedWatermark writes the initial row for a pipeline. An existing row always wins.
func (db *DB) SeedWatermark(ctx context.Context, wm *indexermodels.Watermark) error {
	query := `
		INSERT INTO watermarks (
			pipeline, epoch_hi_inclusive, checkpoint_hi_inclusive, tx_hi,
			timestamp_ms_hi_inclusive, reader_lo, pruner_timestamp, pruner_hi
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pipeline) DO NOTHING
	`

	err := db.Exec(ctx, query,
		wm.Pipeline, wm.EpochHiInclusive, wm.CheckpointHiInclusive, wm.TxHi,
		wm.TimestampMsHiInclusive, wm.ReaderLo, wm.PrunerTimestamp, wm.PrunerHi,
	)
	if err != nil {
		return postgres.Classify(fmt.Errorf("seed watermark %s: %w", wm.Pipeline, err))
	}
	return nil
}

// InTx runs fn inside one Postgres transaction. Any error, including a panic unwinding
// through fn, rolls the whole unit back.
func (db *DB) InTx(ctx context.Context, fn func(indexerstore.Tx) error) error {
	err := db.BeginFunc(ctx, func(pgTx pgx.Tx) error {
		return fn(&tx{exec: pgTx})
	})
	return postgres.Classify(err)
}
