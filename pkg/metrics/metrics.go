package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline counters and gauges, partitioned by pipeline name.

const (
	OutcomeCommitted = "committed"
	OutcomeSkipped   = "skipped"
	OutcomeReplayed  = "replayed"
	OutcomeFailed    = "failed"

	ReasonIllegalTransition = "illegal_transition"
	ReasonOrphanBid         = "orphan_bid"
	ReasonUnknownAuction    = "unknown_auction"
	ReasonMissingOffer      = "missing_offer"
)

var (
	CheckpointsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suinsx",
		Subsystem: "pipeline",
		Name:      "checkpoints_total",
		Help:      "Checkpoints handled, by outcome",
	}, []string{"pipeline", "outcome"})

	EventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suinsx",
		Subsystem: "pipeline",
		Name:      "events_total",
		Help:      "Decoded events applied, by kind",
	}, []string{"pipeline", "kind"})

	DecodeFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suinsx",
		Subsystem: "pipeline",
		Name:      "decode_failures_total",
		Help:      "Recognised events skipped because their payload did not decode",
	}, []string{"pipeline"})

	AnomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "suinsx",
		Subsystem: "pipeline",
		Name:      "anomalies_total",
		Help:      "Events skipped as upstream data anomalies",
	}, []string{"pipeline", "reason"})

	WatermarkCheckpoint = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "suinsx",
		Subsystem: "pipeline",
		Name:      "watermark_checkpoint",
		Help:      "checkpoint_hi_inclusive of the last commit",
	}, []string{"pipeline"})

	CommitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "suinsx",
		Subsystem: "pipeline",
		Name:      "commit_duration_seconds",
		Help:      "Time spent in the checkpoint transaction",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"pipeline"})
)
