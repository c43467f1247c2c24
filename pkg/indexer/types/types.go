package types

import (
	"time"
)

// Checkpoint is one checkpoint as delivered by the remote store. It is never mutated after
// decoding.
type Checkpoint struct {
	SequenceNumber           uint64        `json:"sequence_number"`
	Epoch                    uint64        `json:"epoch"`
	TimestampMs              uint64        `json:"timestamp_ms"`
	NetworkTotalTransactions uint64        `json:"network_total_transactions"`
	Transactions             []Transaction `json:"transactions"`
}

// Time returns the checkpoint timestamp in UTC.
func (c *Checkpoint) Time() time.Time {
	return time.UnixMilli(int64(c.TimestampMs)).UTC()
}

// Transaction is an executed transaction and the events it emitted, in emission order.
type Transaction struct {
	Digest string     `json:"digest"`
	Events []RawEvent `json:"events"`
}

// RawEvent is a Move event before decoding. Contents holds the BCS bytes (base64 on the wire).
type RawEvent struct {
	PackageID string `json:"package_id"`
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Contents  []byte `json:"bcs"`
}
