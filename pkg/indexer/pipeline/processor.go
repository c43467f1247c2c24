package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/canopy-network/suinsx/pkg/db"
	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/indexer/events"
	"github.com/canopy-network/suinsx/pkg/indexer/types"
	"github.com/canopy-network/suinsx/pkg/metrics"
	"go.uber.org/zap"
)

// ErrOutOfOrder is returned for a checkpoint that is not the one right after the watermark.
var ErrOutOfOrder = errors.New("checkpoint out of order")

// Processor applies checkpoints for one pipeline. The watermark is passed in and returned
// rather than held, so the caller always owns the current position.
type Processor struct {
	handler   Handler
	store     db.Store
	extractor *events.Extractor
	logger    *zap.Logger
}

func NewProcessor(logger *zap.Logger, store db.Store, extractor *events.Extractor, handler Handler) *Processor {
	return &Processor{
		handler:   handler,
		store:     store,
		extractor: extractor,
		logger:    logger.With(zap.String("pipeline", handler.Name())),
	}
}

func (p *Processor) Name() string { return p.handler.Name() }

// Process applies cp on top of wm. A checkpoint the watermark already covers is skipped and
// wm returned unchanged. Otherwise all mutations and the watermark advance commit in one
// transaction, and the advanced watermark is returned; on error nothing was written.
func (p *Processor) Process(ctx context.Context, wm indexermodels.Watermark, cp *types.Checkpoint) (indexermodels.Watermark, Result, error) {
	return p.process(ctx, wm, cp, false)
}

// ProcessSkippingOrphans is Process with references to unknown auctions downgraded to anomalies.
func (p *Processor) ProcessSkippingOrphans(ctx context.Context, wm indexermodels.Watermark, cp *types.Checkpoint) (indexermodels.Watermark, Result, error) {
	return p.process(ctx, wm, cp, true)
}

func (p *Processor) process(ctx context.Context, wm indexermodels.Watermark, cp *types.Checkpoint, skipOrphans bool) (indexermodels.Watermark, Result, error) {
	seq := cp.SequenceNumber
	if wm.Applied(seq) {
		p.logger.Debug("Checkpoint already applied",
			zap.Uint64("checkpoint", seq),
			zap.Int64("watermark", wm.CheckpointHiInclusive))
		metrics.CheckpointsTotal.WithLabelValues(p.Name(), metrics.OutcomeSkipped).Inc()
		return wm, Result{Checkpoint: seq, Skipped: true}, nil
	}
	if seq != wm.NextCheckpoint() {
		return wm, Result{}, fmt.Errorf("%w: pipeline %s expects %d, got %d", ErrOutOfOrder, p.Name(), wm.NextCheckpoint(), seq)
	}

	batch := &Batch{Checkpoint: cp, SkipOrphans: skipOrphans}
	var decodeFailures []*events.DecodeError
	for ev, err := range p.extractor.Events(cp) {
		if err != nil {
			var de *events.DecodeError
			if errors.As(err, &de) && p.handler.Wants(de.Kind) {
				decodeFailures = append(decodeFailures, de)
			}
			continue
		}
		if p.handler.Wants(ev.Kind()) {
			batch.Events = append(batch.Events, ev)
		}
	}

	next := wm.Advance(seq, cp.Epoch, cp.NetworkTotalTransactions, cp.TimestampMs)

	var res Result
	start := time.Now()
	err := p.store.InTx(ctx, func(tx db.Tx) error {
		res = Result{Checkpoint: seq, DecodeFailures: decodeFailures}
		if err := p.handler.Apply(ctx, tx, batch, &res); err != nil {
			return err
		}
		return tx.AdvanceWatermark(ctx, &next)
	})
	if err != nil {
		return wm, Result{}, fmt.Errorf("pipeline %s checkpoint %d: %w", p.Name(), seq, err)
	}
	metrics.CommitDuration.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())

	p.report(next, res)
	return next, res, nil
}

// report logs and counts what a committed checkpoint did. Nothing is reported for attempts
// that rolled back.
func (p *Processor) report(wm indexermodels.Watermark, res Result) {
	name := p.Name()

	outcome := metrics.OutcomeCommitted
	if res.Replayed {
		outcome = metrics.OutcomeReplayed
		p.logger.Info("Checkpoint already recorded in events cursor, domain writes skipped",
			zap.Uint64("checkpoint", res.Checkpoint))
	}
	metrics.CheckpointsTotal.WithLabelValues(name, outcome).Inc()
	metrics.WatermarkCheckpoint.WithLabelValues(name).Set(float64(wm.CheckpointHiInclusive))

	for kind, n := range res.Events {
		metrics.EventsTotal.WithLabelValues(name, kind.String()).Add(float64(n))
	}

	for _, de := range res.DecodeFailures {
		p.logger.Warn("Skipping event that failed to decode",
			zap.Uint64("checkpoint", de.Meta.Checkpoint),
			zap.String("tx_digest", de.Meta.TxDigest),
			zap.String("event_type", de.Meta.Type),
			zap.Error(de.Err))
	}
	metrics.DecodeFailuresTotal.WithLabelValues(name).Add(float64(len(res.DecodeFailures)))

	for _, a := range res.Anomalies {
		level := p.logger.Warn
		msg := "Data anomaly, mutation skipped"
		if a.Reason == metrics.ReasonOrphanBid || a.Reason == metrics.ReasonUnknownAuction {
			level = p.logger.Error
			msg = "Unresolved reference to unknown auction, event skipped"
		}
		level(msg,
			zap.String("reason", a.Reason),
			zap.Uint64("checkpoint", a.Meta.Checkpoint),
			zap.String("tx_digest", a.Meta.TxDigest),
			zap.String("event_type", a.Meta.Type),
			zap.Error(a.Err))
		metrics.AnomaliesTotal.WithLabelValues(name, a.Reason).Inc()
	}
}
