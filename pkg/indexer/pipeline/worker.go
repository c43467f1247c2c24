package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canopy-network/suinsx/pkg/db"
	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/indexer/types"
	"github.com/canopy-network/suinsx/pkg/metrics"
	"github.com/canopy-network/suinsx/pkg/retry"
	"github.com/canopy-network/suinsx/pkg/rpc"
	"go.uber.org/zap"
)

// Notifier is told about every commit. Implementations must not block for long.
type Notifier interface {
	CheckpointCommitted(ctx context.Context, evt types.CheckpointCommittedEvent)
}

// WorkerConfig controls where a worker starts and stops and how hard it retries.
type WorkerConfig struct {
	// FirstCheckpoint seeds the watermark on the very first run. Ignored once a watermark exists.
	FirstCheckpoint *uint64
	// LastCheckpoint stops the worker after committing it.
	LastCheckpoint *uint64
	PollInterval   time.Duration
	// BidRetryLimit is how many attempts a checkpoint gets while it references an unknown
	// auction before those events are skipped as unresolved.
	BidRetryLimit int
	// MaxFailures bounds attempts for errors that are neither transient nor orphan references.
	MaxFailures int
	Retry       retry.Config
}

func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		PollInterval:  time.Second,
		BidRetryLimit: 5,
		MaxFailures:   5,
		Retry:         retry.CheckpointConfig(),
	}
}

// Worker drives one pipeline over the checkpoint stream, strictly in order.
type Worker struct {
	processor *Processor
	store     db.Store
	source    rpc.Source
	progress  *Progress
	notifier  Notifier
	cfg       WorkerConfig
	logger    *zap.Logger
}

// NewWorker wires a worker. progress and notifier may be nil.
func NewWorker(logger *zap.Logger, processor *Processor, store db.Store, source rpc.Source, progress *Progress, notifier Notifier, cfg WorkerConfig) *Worker {
	if progress == nil {
		progress = NewProgress()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.BidRetryLimit <= 0 {
		cfg.BidRetryLimit = 1
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 1
	}
	return &Worker{
		processor: processor,
		store:     store,
		source:    source,
		progress:  progress,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger.With(zap.String("pipeline", processor.Name())),
	}
}

func (w *Worker) Name() string { return w.processor.Name() }

// Run processes checkpoints until LastCheckpoint is committed, ctx is cancelled, or a
// non-retryable error occurs. Cancellation is only observed between checkpoints and returns nil.
func (w *Worker) Run(ctx context.Context) error {
	name := w.Name()
	defer w.progress.Stopped(name)

	wm, err := w.resume(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		w.progress.Failed(name, err)
		return err
	}
	w.progress.Started(name, wm)
	w.logger.Info("Pipeline started",
		zap.Uint64("resume_checkpoint", wm.NextCheckpoint()),
		zap.Int64("watermark", wm.CheckpointHiInclusive))

	for {
		next := wm.NextCheckpoint()
		if w.cfg.LastCheckpoint != nil && wm.Applied(*w.cfg.LastCheckpoint) {
			w.logger.Info("Reached last checkpoint, stopping", zap.Uint64("last_checkpoint", *w.cfg.LastCheckpoint))
			return nil
		}
		if ctx.Err() != nil {
			w.logger.Info("Pipeline stopping", zap.Uint64("next_checkpoint", next))
			return nil
		}

		cp, err := w.fetch(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.progress.Failed(name, err)
			return err
		}

		wm, err = w.commit(ctx, wm, cp)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.progress.Failed(name, err)
			return err
		}
	}
}

// resume loads the watermark, seeding it from FirstCheckpoint on the first run. Without a
// watermark or an override the starting point is unknown and the worker refuses to guess.
func (w *Worker) resume(ctx context.Context) (indexermodels.Watermark, error) {
	name := w.Name()

	var stored *indexermodels.Watermark
	err := retry.WithBackoff(ctx, w.cfg.Retry, w.logger, "load_watermark", func() error {
		var err error
		stored, err = w.store.Watermark(ctx, name)
		if err == nil {
			return nil
		}
		if errors.Is(err, db.ErrWatermarkNotFound) && w.cfg.FirstCheckpoint != nil {
			seed := indexermodels.SeedWatermark(name, *w.cfg.FirstCheckpoint)
			if seedErr := w.store.SeedWatermark(ctx, seed); seedErr != nil {
				return transientOrPermanent(seedErr)
			}
			w.logger.Info("Seeded watermark", zap.Uint64("first_checkpoint", *w.cfg.FirstCheckpoint))
			// re-read: a concurrent seed wins over ours
			stored, err = w.store.Watermark(ctx, name)
		}
		return transientOrPermanent(err)
	})
	if err != nil {
		if errors.Is(err, db.ErrWatermarkNotFound) {
			return indexermodels.Watermark{}, fmt.Errorf("pipeline %s has no watermark and FIRST_CHECKPOINT is not set: %w", name, err)
		}
		return indexermodels.Watermark{}, fmt.Errorf("pipeline %s: load watermark: %w", name, err)
	}

	if first := w.cfg.FirstCheckpoint; first != nil && *first != stored.NextCheckpoint() {
		w.logger.Warn("Ignoring FIRST_CHECKPOINT, watermark already exists",
			zap.Uint64("first_checkpoint", *first),
			zap.Uint64("resume_checkpoint", stored.NextCheckpoint()))
	}
	return *stored, nil
}

// fetch returns checkpoint seq, polling while it is not yet published and backing off on
// transport errors.
func (w *Worker) fetch(ctx context.Context, seq uint64) (*types.Checkpoint, error) {
	var cp *types.Checkpoint
	err := retry.WithBackoff(ctx, w.cfg.Retry, w.logger, "fetch_checkpoint", func() error {
		for {
			got, err := w.source.Checkpoint(ctx, seq)
			if err == nil {
				cp = got
				return nil
			}
			if !errors.Is(err, rpc.ErrCheckpointNotFound) {
				return err
			}
			select {
			case <-ctx.Done():
				return retry.Permanent(ctx.Err())
			case <-time.After(w.cfg.PollInterval):
			}
		}
	})
	return cp, err
}

// commit applies cp, retrying the whole checkpoint until it sticks. Each attempt runs on a
// context detached from cancellation so a started transaction always finishes; cancellation
// is only honoured between attempts.
func (w *Worker) commit(ctx context.Context, wm indexermodels.Watermark, cp *types.Checkpoint) (indexermodels.Watermark, error) {
	name := w.Name()
	txCtx := context.WithoutCancel(ctx)

	var (
		next           indexermodels.Watermark
		res            Result
		attempts       int
		failures       int
		regressions    int
		orphanAttempts int
		skipOrphans    bool
		confirmed      bool
	)
	err := retry.WithBackoff(ctx, w.cfg.Retry, w.logger, "commit_checkpoint", func() error {
		attempts++
		if attempts > 1 {
			// the previous attempt may have committed even though it reported an error
			stored, err := w.storedCovering(txCtx, cp.SequenceNumber)
			if err != nil {
				return err
			}
			if stored != nil {
				next, res, confirmed = *stored, Result{Checkpoint: cp.SequenceNumber}, true
				return nil
			}
		}

		var err error
		next, res, err = w.processor.process(txCtx, wm, cp, skipOrphans)
		if err == nil {
			return nil
		}
		metrics.CheckpointsTotal.WithLabelValues(name, metrics.OutcomeFailed).Inc()
		w.progress.Failed(name, err)

		switch {
		case errors.Is(err, ErrOutOfOrder):
			return retry.Permanent(err)
		case errors.Is(err, db.ErrWatermarkRegressed):
			// the next attempt adopts the stored watermark if it already covers cp
			regressions++
			if regressions > 1 {
				return retry.Permanent(err)
			}
		case errors.Is(err, db.ErrAuctionNotFound):
			orphanAttempts++
			if orphanAttempts >= w.cfg.BidRetryLimit {
				w.logger.Warn("Auction still missing after retries, skipping unresolved references",
					zap.Uint64("checkpoint", cp.SequenceNumber),
					zap.Int("attempts", orphanAttempts))
				skipOrphans = true
			}
		case errors.Is(err, db.ErrTransient):
		default:
			failures++
			if failures >= w.cfg.MaxFailures {
				return retry.Permanent(err)
			}
		}
		return err
	})
	if err != nil {
		return wm, err
	}

	if !res.Skipped {
		now := time.Now()
		w.progress.Committed(name, next, now)
		if w.notifier != nil {
			w.notifier.CheckpointCommitted(txCtx, types.CheckpointCommittedEvent{
				Event:       types.CheckpointCommittedEventName,
				Pipeline:    name,
				Checkpoint:  cp.SequenceNumber,
				Epoch:       cp.Epoch,
				TimestampMs: cp.TimestampMs,
				Rows:        res.Rows,
				Skipped:     res.Replayed,
				Timestamp:   now,
			})
		}
		if confirmed {
			w.logger.Info("Checkpoint commit confirmed by stored watermark after a failed acknowledgement",
				zap.Uint64("checkpoint", cp.SequenceNumber),
				zap.Int64("watermark", next.CheckpointHiInclusive))
		} else {
			w.logger.Debug("Checkpoint committed",
				zap.Uint64("checkpoint", cp.SequenceNumber),
				zap.Int("rows", res.Rows))
		}
	}
	return next, nil
}

// storedCovering returns the stored watermark when it already includes seq, nil otherwise.
func (w *Worker) storedCovering(ctx context.Context, seq uint64) (*indexermodels.Watermark, error) {
	stored, err := w.store.Watermark(ctx, w.Name())
	if err != nil {
		return nil, transientOrPermanent(err)
	}
	if !stored.Applied(seq) {
		return nil, nil
	}
	metrics.WatermarkCheckpoint.WithLabelValues(w.Name()).Set(float64(stored.CheckpointHiInclusive))
	return stored, nil
}

func transientOrPermanent(err error) error {
	if err == nil || errors.Is(err, db.ErrTransient) {
		return err
	}
	return retry.Permanent(err)
}
