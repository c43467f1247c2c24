package types

import (
	"time"
)

const CheckpointCommittedEventName = "checkpoint.committed"

// CheckpointCommittedEvent is published after a pipeline commits a checkpoint together with its
// watermark, so every row it mentions is already visible to readers.
type CheckpointCommittedEvent struct {
	Event       string    `json:"event"` // Always "checkpoint.committed"
	Pipeline    string    `json:"pipeline"`
	Checkpoint  uint64    `json:"checkpoint"`
	Epoch       uint64    `json:"epoch"`
	TimestampMs uint64    `json:"timestampMs"`
	Rows        int       `json:"rows"`
	Skipped     bool      `json:"skipped"` // true when the events cursor reported a replay
	Timestamp   time.Time `json:"timestamp"`
}

// Values flattens the event into Redis stream fields.
func (e CheckpointCommittedEvent) Values() map[string]interface{} {
	return map[string]interface{}{
		"event":       e.Event,
		"pipeline":    e.Pipeline,
		"checkpoint":  e.Checkpoint,
		"epoch":       e.Epoch,
		"timestampMs": e.TimestampMs,
		"rows":        e.Rows,
		"skipped":     e.Skipped,
		"timestamp":   e.Timestamp.Format(time.RFC3339Nano),
	}
}

// GetStream returns the Redis stream name for a pipeline and event type.
// Stream format: suinsx:{pipeline}:{eventType}
// Example: suinsx:auctions:checkpoint.committed
func GetStream(pipeline, eventType string) string {
	return "suinsx:" + pipeline + ":" + eventType
}

// GetCheckpointCommittedStream returns the Redis stream for checkpoint.committed events.
func GetCheckpointCommittedStream(pipeline string) string {
	return GetStream(pipeline, CheckpointCommittedEventName)
}
