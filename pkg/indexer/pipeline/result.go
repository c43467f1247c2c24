package pipeline

import (
	"github.com/canopy-network/suinsx/pkg/indexer/events"
)

// Anomaly is an event that was skipped because upstream data contradicts what is stored.
type Anomaly struct {
	Reason string
	Meta   events.Meta
	Err    error
}

// Result describes what one Process call did. It is only reported once the transaction commits.
type Result struct {
	Checkpoint uint64
	// Skipped: the watermark already covered the checkpoint, nothing ran.
	Skipped bool
	// Replayed: the events cursor had the checkpoint, domain writes were skipped.
	Replayed bool

	Rows           int
	Events         map[events.Kind]int
	DecodeFailures []*events.DecodeError
	Anomalies      []Anomaly
}

func (r *Result) countEvent(kind events.Kind) {
	if r.Events == nil {
		r.Events = map[events.Kind]int{}
	}
	r.Events[kind]++
}

func (r *Result) anomaly(reason string, meta events.Meta, err error) {
	r.Anomalies = append(r.Anomalies, Anomaly{Reason: reason, Meta: meta, Err: err})
}
