package events

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"unicode/utf8"

	"github.com/fardream/go-bcs/bcs"
	"github.com/shopspring/decimal"
)

const addressLength = 32

// address is a Move address: 32 raw bytes, no length prefix.
type address [addressLength]byte

func (a address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Wire layouts of the Move event structs, field for field. vector<u8> names stay raw bytes
// so invalid UTF-8 can be replaced the same way everywhere.
type (
	offerWire struct {
		DomainName []byte
		Address    address
		Value      uint64
	}
	ownerBuyerOfferWire struct {
		DomainName []byte
		Owner      address
		Buyer      address
		Value      uint64
	}
	counterOfferAcceptedWire struct {
		DomainName []byte
		Buyer      address
		Value      uint64
	}
	auctionCreatedWire struct {
		AuctionID  address
		DomainName []byte
		Owner      address
		StartTime  uint64
		EndTime    uint64
		MinBid     uint64
	}
	auctionAmountWire struct {
		AuctionID  address
		DomainName []byte
		Account    address
		Amount     uint64
	}
	auctionCancelledWire struct {
		AuctionID  address
		DomainName []byte
		Owner      address
	}
)

// unmarshal decodes one struct and rejects payloads with bytes left over.
func unmarshal[W any](data []byte) (W, error) {
	var w W
	n, err := bcs.Unmarshal(data, &w)
	if err != nil {
		return w, fmt.Errorf("bcs: %w", err)
	}
	if rest := len(data) - n; rest != 0 {
		return w, fmt.Errorf("%d trailing bytes after bcs struct", rest)
	}
	return w, nil
}

func amount(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

// timestamp rejects u64 values the BIGINT columns cannot hold.
func timestamp(field string, v uint64) (uint64, error) {
	if v > math.MaxInt64 {
		return 0, fmt.Errorf("%s %d out of range", field, v)
	}
	return v, nil
}

// lossyString replaces each maximal invalid subsequence with one U+FFFD, matching Rust's
// String::from_utf8_lossy.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out := make([]byte, 0, len(b)+8)
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r != utf8.RuneError || size > 1 {
			out = append(out, b[:size]...)
			b = b[size:]
			continue
		}
		out = utf8.AppendRune(out, utf8.RuneError)
		b = b[invalidPrefix(b):]
	}
	return string(out)
}

// invalidPrefix is the length of the longest prefix of b that starts a well-formed sequence
// without completing it, at least one byte.
func invalidPrefix(b []byte) int {
	lo, hi := byte(0x80), byte(0xbf)
	var need int
	switch c := b[0]; {
	case c >= 0xc2 && c <= 0xdf:
		need = 1
	case c == 0xe0:
		need, lo = 2, 0xa0
	case c == 0xed:
		need, hi = 2, 0x9f
	case c >= 0xe1 && c <= 0xef:
		need = 2
	case c == 0xf0:
		need, lo = 3, 0x90
	case c == 0xf4:
		need, hi = 3, 0x8f
	case c >= 0xf1 && c <= 0xf3:
		need = 3
	default:
		return 1
	}
	n := 1
	for ; n <= need && n < len(b); n++ {
		if b[n] < lo || b[n] > hi {
			break
		}
		lo, hi = 0x80, 0xbf
	}
	return n
}
