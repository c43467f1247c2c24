package indexer

import "strconv"

const EventsCursorTableName = "events_cursor"

// EventsCursor marks a checkpoint as applied. The checkpoint column is unique, so a second
// insert for the same checkpoint is how a replay is detected.
type EventsCursor struct {
	ID         int64  `db:"id" json:"id"`
	Checkpoint string `db:"checkpoint" json:"checkpoint"`
	TxDigest   string `db:"tx_digest" json:"tx_digest"`
}

func NewEventsCursor(checkpoint uint64, txDigest string) *EventsCursor {
	return &EventsCursor{
		Checkpoint: strconv.FormatUint(checkpoint, 10),
		TxDigest:   txDigest,
	}
}
