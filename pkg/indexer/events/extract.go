package events

import (
	"iter"
	"strings"

	"github.com/canopy-network/suinsx/pkg/indexer/types"
)

// Extractor projects checkpoints onto marketplace events. It has no state besides the package
// filter and is safe for concurrent use.
type Extractor struct {
	packagePrefix string
}

// NewExtractor returns an Extractor matching event types published by packageID. An empty
// packageID matches every package.
func NewExtractor(packageID string) *Extractor {
	prefix := ""
	if packageID != "" {
		prefix = strings.ToLower(packageID) + "::"
	}
	return &Extractor{packagePrefix: prefix}
}

// Events lazily yields the events of cp in transaction order, then emission order. A decode
// failure is yielded as a nil Event with a *DecodeError; iteration continues afterwards.
func (x *Extractor) Events(cp *types.Checkpoint) iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		ts := cp.Time()
		for txIdx, tx := range cp.Transactions {
			for evIdx, raw := range tx.Events {
				meta := Meta{
					Checkpoint: cp.SequenceNumber,
					TxDigest:   tx.Digest,
					TxIndex:    txIdx,
					EventIndex: evIdx,
					Type:       raw.Type,
					Timestamp:  ts,
				}
				ev, err := x.Decode(meta, raw)
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}
				if !yield(ev, nil) {
					return
				}
			}
		}
	}
}

// Decode maps one raw event to its variant. Unknown types are Ignored, never an error.
func (x *Extractor) Decode(meta Meta, raw types.RawEvent) (Event, error) {
	if x.packagePrefix != "" && !strings.HasPrefix(strings.ToLower(raw.Type), x.packagePrefix) {
		return Ignored{Meta: meta}, nil
	}

	name := raw.Type
	if i := strings.LastIndex(name, "::"); i >= 0 {
		name = name[i+2:]
	}
	d, ok := decoders[name]
	if !ok {
		return Ignored{Meta: meta}, nil
	}

	ev, err := d.decode(raw.Contents, meta)
	if err != nil {
		return nil, &DecodeError{Kind: d.kind, Meta: meta, Err: err}
	}
	return ev, nil
}
