package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointDecodesWireFormat(t *testing.T) {
	raw := `{
		"sequence_number": 100,
		"epoch": 3,
		"timestamp_ms": 1700000000123,
		"network_total_transactions": 42,
		"transactions": [
			{"digest": "D1", "events": [
				{"package_id": "0xabc", "type": "0xabc::offer::OfferPlacedEvent", "sender": "0x1", "bcs": "AQID"}
			]},
			{"digest": "D2", "events": []}
		]
	}`

	var cp Checkpoint
	require.NoError(t, json.Unmarshal([]byte(raw), &cp))
	require.Equal(t, uint64(100), cp.SequenceNumber)
	require.Equal(t, uint64(3), cp.Epoch)
	require.Equal(t, uint64(42), cp.NetworkTotalTransactions)
	require.Len(t, cp.Transactions, 2)
	require.Equal(t, "D1", cp.Transactions[0].Digest)
	require.Equal(t, []byte{1, 2, 3}, cp.Transactions[0].Events[0].Contents)
	require.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 123000000, time.UTC), cp.Time())
}

func TestCheckpointCommittedStream(t *testing.T) {
	tests := []struct {
		name     string
		pipeline string
		expected string
	}{
		{name: "offer events", pipeline: "offer-events", expected: "suinsx:offer-events:checkpoint.committed"},
		{name: "auctions", pipeline: "auctions", expected: "suinsx:auctions:checkpoint.committed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetCheckpointCommittedStream(tt.pipeline))
		})
	}
}

func TestCheckpointCommittedEventValues(t *testing.T) {
	ev := CheckpointCommittedEvent{
		Event:      CheckpointCommittedEventName,
		Pipeline:   "offers",
		Checkpoint: 7,
		Rows:       2,
		Timestamp:  time.Unix(0, 0).UTC(),
	}
	values := ev.Values()
	assert.Equal(t, "checkpoint.committed", values["event"])
	assert.Equal(t, uint64(7), values["checkpoint"])
	assert.Equal(t, 2, values["rows"])
	assert.Equal(t, "1970-01-01T00:00:00Z", values["timestamp"])
}
