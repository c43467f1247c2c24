package pipeline

import (
	"sort"
	"time"

	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/puzpuzpuz/xsync/v4"
)

// Status is the externally visible state of one pipeline.
type Status struct {
	Pipeline              string    `json:"pipeline"`
	Running               bool      `json:"running"`
	CheckpointHiInclusive int64     `json:"checkpoint_hi_inclusive"`
	EpochHiInclusive      int64     `json:"epoch_hi_inclusive"`
	TimestampMs           int64     `json:"timestamp_ms_hi_inclusive"`
	Committed             uint64    `json:"committed"`
	LastCommitAt          time.Time `json:"last_commit_at,omitempty"`
	LastError             string    `json:"last_error,omitempty"`
}

// Progress is shared by the workers, the status endpoint and the periodic report.
type Progress struct {
	statuses *xsync.Map[string, Status]
}

func NewProgress() *Progress {
	return &Progress{statuses: xsync.NewMap[string, Status]()}
}

func (p *Progress) update(pipeline string, fn func(*Status)) {
	p.statuses.Compute(pipeline, func(old Status, loaded bool) (Status, xsync.ComputeOp) {
		if !loaded {
			old = Status{Pipeline: pipeline}
		}
		fn(&old)
		return old, xsync.UpdateOp
	})
}

func setWatermark(s *Status, wm indexermodels.Watermark) {
	s.CheckpointHiInclusive = wm.CheckpointHiInclusive
	s.EpochHiInclusive = wm.EpochHiInclusive
	s.TimestampMs = wm.TimestampMsHiInclusive
}

// Started marks the pipeline running from its resume watermark.
func (p *Progress) Started(pipeline string, wm indexermodels.Watermark) {
	p.update(pipeline, func(s *Status) {
		s.Running = true
		s.LastError = ""
		setWatermark(s, wm)
	})
}

// Committed records a successful commit.
func (p *Progress) Committed(pipeline string, wm indexermodels.Watermark, at time.Time) {
	p.update(pipeline, func(s *Status) {
		setWatermark(s, wm)
		s.Committed++
		s.LastCommitAt = at
		s.LastError = ""
	})
}

// Failed keeps the latest error; the pipeline may still be retrying.
func (p *Progress) Failed(pipeline string, err error) {
	p.update(pipeline, func(s *Status) {
		s.LastError = err.Error()
	})
}

func (p *Progress) Stopped(pipeline string) {
	p.update(pipeline, func(s *Status) {
		s.Running = false
	})
}

// Get returns the status of one pipeline.
func (p *Progress) Get(pipeline string) (Status, bool) {
	return p.statuses.Load(pipeline)
}

// Snapshot returns every pipeline's status ordered by name.
func (p *Progress) Snapshot() []Status {
	out := make([]Status, 0, p.statuses.Size())
	p.statuses.Range(func(_ string, s Status) bool {
		out = append(out, s)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Pipeline < out[j].Pipeline })
	return out
}
