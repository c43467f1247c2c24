package indexer

import (
	"time"
)

const WatermarksTableName = "watermarks"

// Watermark is the inclusive upper bound of what a pipeline has committed. It only moves
// forward and only inside the transaction that carries the rows it accounts for.
type Watermark struct {
	Pipeline               string    `db:"pipeline" json:"pipeline"`
	EpochHiInclusive       int64     `db:"epoch_hi_inclusive" json:"epoch_hi_inclusive"`
	CheckpointHiInclusive  int64     `db:"checkpoint_hi_inclusive" json:"checkpoint_hi_inclusive"`
	TxHi                   int64     `db:"tx_hi" json:"tx_hi"`
	TimestampMsHiInclusive int64     `db:"timestamp_ms_hi_inclusive" json:"timestamp_ms_hi_inclusive"`
	ReaderLo               int64     `db:"reader_lo" json:"reader_lo"`
	PrunerTimestamp        time.Time `db:"pruner_timestamp" json:"pruner_timestamp"`
	PrunerHi               int64     `db:"pruner_hi" json:"pruner_hi"`
}

// SeedWatermark returns the row written before a pipeline's first run so that the first
// checkpoint processed is first.
func SeedWatermark(pipeline string, first uint64) *Watermark {
	return &Watermark{
		Pipeline:              pipeline,
		CheckpointHiInclusive: int64(first) - 1,
		ReaderLo:              int64(first),
		PrunerTimestamp:       time.Unix(0, 0).UTC(),
		PrunerHi:              int64(first),
	}
}

// NextCheckpoint is the first checkpoint not yet applied.
func (w *Watermark) NextCheckpoint() uint64 {
	return uint64(w.CheckpointHiInclusive + 1)
}

// Applied reports whether checkpoint seq is already covered.
func (w *Watermark) Applied(seq uint64) bool {
	return w.CheckpointHiInclusive >= 0 && seq <= uint64(w.CheckpointHiInclusive)
}

// Advance returns the watermark after committing a checkpoint. Reader and pruner fields are
// owned by external tooling and carried over unchanged.
func (w Watermark) Advance(seq, epoch, txHi, timestampMs uint64) Watermark {
	w.CheckpointHiInclusive = int64(seq)
	w.EpochHiInclusive = int64(epoch)
	w.TxHi = int64(txHi)
	w.TimestampMsHiInclusive = int64(timestampMs)
	return w
}
