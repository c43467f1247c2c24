package pipeline

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"testing"
	"time"

	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/indexer/events"
	"github.com/canopy-network/suinsx/pkg/indexer/types"
	"github.com/canopy-network/suinsx/pkg/retry"
	"go.uber.org/zap/zaptest"
)

const testPackage = "0xfeed"

func addr(b byte) string {
	return "0x" + strings.Repeat(hex.EncodeToString([]byte{b}), 32)
}

// payload encodes BCS fields: string is a vector<u8>, uint64 a u64, and strings starting
// with 0x are 32-byte addresses.
func payload(fields ...any) []byte {
	var buf []byte
	for _, f := range fields {
		switch v := f.(type) {
		case uint64:
			buf = binary.LittleEndian.AppendUint64(buf, v)
		case int:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
		case string:
			if strings.HasPrefix(v, "0x") {
				raw, err := hex.DecodeString(v[2:])
				if err != nil || len(raw) != 32 {
					panic("bad address " + v)
				}
				buf = append(buf, raw...)
				continue
			}
			buf = append(buf, byte(len(v)))
			buf = append(buf, v...)
		default:
			panic("unsupported field")
		}
	}
	return buf
}

func rawEvent(structName string, fields ...any) types.RawEvent {
	return types.RawEvent{
		PackageID: testPackage,
		Type:      testPackage + "::marketplace::" + structName,
		Contents:  payload(fields...),
	}
}

func offerPlaced(domain, buyer string, value int) types.RawEvent {
	return rawEvent("OfferPlacedEvent", domain, buyer, value)
}

func offerCancelled(domain, buyer string, value int) types.RawEvent {
	return rawEvent("OfferCancelledEvent", domain, buyer, value)
}

func counterOffer(domain, owner, buyer string, value int) types.RawEvent {
	return rawEvent("MakeCounterOfferEvent", domain, owner, buyer, value)
}

func acceptCounterOffer(domain, buyer string, value int) types.RawEvent {
	return rawEvent("AcceptCounterOfferEvent", domain, buyer, value)
}

func offerAccepted(domain, owner, buyer string, value int) types.RawEvent {
	return rawEvent("OfferAcceptedEvent", domain, owner, buyer, value)
}

func auctionCreated(id, domain, owner string, minBid int) types.RawEvent {
	return rawEvent("AuctionCreatedEvent", id, domain, owner, 1000, 2000, minBid)
}

func bidPlaced(id, domain, bidder string, amount int) types.RawEvent {
	return rawEvent("BidPlacedEvent", id, domain, bidder, amount)
}

func auctionFinalized(id, domain, winner string, amount int) types.RawEvent {
	return rawEvent("AuctionFinalizedEvent", id, domain, winner, amount)
}

func auctionCancelled(id, domain, owner string) types.RawEvent {
	return rawEvent("AuctionCancelledEvent", id, domain, owner)
}

// checkpoint builds checkpoint seq with one transaction per event group.
func checkpoint(seq uint64, txs ...[]types.RawEvent) *types.Checkpoint {
	cp := &types.Checkpoint{
		SequenceNumber:           seq,
		Epoch:                    seq / 100,
		TimestampMs:              1_700_000_000_000 + seq*1000,
		NetworkTotalTransactions: seq * 10,
	}
	for i, evs := range txs {
		cp.Transactions = append(cp.Transactions, types.Transaction{
			Digest: digest(seq, i),
			Events: evs,
		})
	}
	return cp
}

func digest(seq uint64, i int) string {
	return fmt.Sprintf("tx-%d-%d", seq, i)
}

func tx(evs ...types.RawEvent) []types.RawEvent { return evs }

func newTestProcessor(t *testing.T, store *fakeStore, name string) *Processor {
	t.Helper()
	handler, err := NewHandler(name)
	if err != nil {
		t.Fatal(err)
	}
	return NewProcessor(zaptest.NewLogger(t), store, events.NewExtractor(testPackage), handler)
}

// seeded returns the watermark of a fresh pipeline whose first checkpoint is first.
func seeded(store *fakeStore, name string, first uint64) indexermodels.Watermark {
	wm := indexermodels.SeedWatermark(name, first)
	store.forceWatermark(*wm)
	return *wm
}

func fastRetry() retry.Config {
	return retry.Config{
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2,
	}
}
