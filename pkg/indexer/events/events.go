// Package events turns raw checkpoint events into the closed set of marketplace events the
// pipelines understand.
package events

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind tags an Event variant.
type Kind uint8

const (
	KindIgnored Kind = iota
	KindOfferPlaced
	KindOfferCancelled
	KindOfferAccepted
	KindOfferDeclined
	KindCounterOfferMade
	KindCounterOfferAccepted
	KindAuctionCreated
	KindBidPlaced
	KindAuctionFinalized
	KindAuctionCancelled
)

var kindNames = [...]string{
	KindIgnored:              "ignored",
	KindOfferPlaced:          "offer_placed",
	KindOfferCancelled:       "offer_cancelled",
	KindOfferAccepted:        "offer_accepted",
	KindOfferDeclined:        "offer_declined",
	KindCounterOfferMade:     "counter_offer_made",
	KindCounterOfferAccepted: "counter_offer_accepted",
	KindAuctionCreated:       "auction_created",
	KindBidPlaced:            "bid_placed",
	KindAuctionFinalized:     "auction_finalized",
	KindAuctionCancelled:     "auction_cancelled",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Meta locates an event in the checkpoint stream.
type Meta struct {
	Checkpoint uint64
	TxDigest   string
	TxIndex    int
	EventIndex int
	Type       string
	Timestamp  time.Time
}

func (m Meta) Metadata() Meta { return m }

func (Meta) sealed() {}

// Event is implemented only by the variants in this file.
type Event interface {
	Kind() Kind
	Metadata() Meta
	sealed()
}

// Ignored stands for any event outside the marketplace package or with an unknown type.
type Ignored struct {
	Meta
}

type OfferPlaced struct {
	Meta
	DomainName string
	Address    string
	Value      decimal.Decimal
}

type OfferCancelled struct {
	Meta
	DomainName string
	Address    string
	Value      decimal.Decimal
}

type OfferAccepted struct {
	Meta
	DomainName string
	Owner      string
	Buyer      string
	Value      decimal.Decimal
}

type OfferDeclined struct {
	Meta
	DomainName string
	Owner      string
	Buyer      string
	Value      decimal.Decimal
}

// CounterOfferMade is emitted when the domain owner answers an offer with a new price.
type CounterOfferMade struct {
	Meta
	DomainName string
	Owner      string
	Buyer      string
	Value      decimal.Decimal
}

// CounterOfferAccepted is emitted when the buyer takes the owner's counter offer.
type CounterOfferAccepted struct {
	Meta
	DomainName string
	Buyer      string
	Value      decimal.Decimal
}

type AuctionCreated struct {
	Meta
	AuctionID  string
	DomainName string
	Owner      string
	StartTime  uint64
	EndTime    uint64
	MinBid     decimal.Decimal
}

type BidPlaced struct {
	Meta
	AuctionID  string
	DomainName string
	Bidder     string
	Amount     decimal.Decimal
}

type AuctionFinalized struct {
	Meta
	AuctionID  string
	DomainName string
	Winner     string
	Amount     decimal.Decimal
}

type AuctionCancelled struct {
	Meta
	AuctionID  string
	DomainName string
	Owner      string
}

func (Ignored) Kind() Kind              { return KindIgnored }
func (OfferPlaced) Kind() Kind          { return KindOfferPlaced }
func (OfferCancelled) Kind() Kind       { return KindOfferCancelled }
func (OfferAccepted) Kind() Kind        { return KindOfferAccepted }
func (OfferDeclined) Kind() Kind        { return KindOfferDeclined }
func (CounterOfferMade) Kind() Kind     { return KindCounterOfferMade }
func (CounterOfferAccepted) Kind() Kind { return KindCounterOfferAccepted }
func (AuctionCreated) Kind() Kind       { return KindAuctionCreated }
func (BidPlaced) Kind() Kind            { return KindBidPlaced }
func (AuctionFinalized) Kind() Kind     { return KindAuctionFinalized }
func (AuctionCancelled) Kind() Kind     { return KindAuctionCancelled }

// DecodeError reports a recognised event whose payload could not be decoded.
type DecodeError struct {
	Kind Kind // the variant the payload was meant to decode into
	Meta Meta
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s in tx %s (checkpoint %d): %v", e.Meta.Type, e.Meta.TxDigest, e.Meta.Checkpoint, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
