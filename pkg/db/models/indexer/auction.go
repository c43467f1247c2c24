package indexer

import (
	"time"
)

const AuctionsTableName = "auctions"
const BidsTableName = "bids"

// AuctionStatus is the auction lifecycle. Created is initial, cancelled and finalized are
// terminal.
type AuctionStatus string

const (
	AuctionStatusCreated   AuctionStatus = "created"
	AuctionStatusCancelled AuctionStatus = "cancelled"
	AuctionStatusFinalized AuctionStatus = "finalized"
)

var auctionTransitions = map[AuctionStatus][]AuctionStatus{
	AuctionStatusCreated: {AuctionStatusCancelled, AuctionStatusFinalized},
}

// Terminal reports whether no further transition is accepted.
func (s AuctionStatus) Terminal() bool {
	return len(auctionTransitions[s]) == 0
}

// CanTransition reports whether s -> to is a legal move.
func (s AuctionStatus) CanTransition(to AuctionStatus) bool {
	for _, next := range auctionTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Auction is the only mutable row: one per chain-assigned auction id, updated in place by
// later lifecycle events.
type Auction struct {
	AuctionID    string        `db:"auction_id" json:"auction_id"`
	DomainName   string        `db:"domain_name" json:"domain_name"`
	Owner        string        `db:"owner" json:"owner"`
	StartTime    uint64        `db:"start_time" json:"start_time"` // logical, from the auction event
	EndTime      uint64        `db:"end_time" json:"end_time"`
	MinBid       string        `db:"min_bid" json:"min_bid"`
	Winner       *string       `db:"winner" json:"winner"` // set on finalization only
	Amount       *string       `db:"amount" json:"amount"` // set on finalization only
	Status       AuctionStatus `db:"status" json:"status"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	LastTxDigest string        `db:"last_tx_digest" json:"last_tx_digest"`
}

// Finalize moves the auction to finalized, recording winner and amount.
func (a *Auction) Finalize(winner, amount string, at time.Time, txDigest string) error {
	if err := a.transition(AuctionStatusFinalized); err != nil {
		return err
	}
	a.Winner = &winner
	a.Amount = &amount
	a.UpdatedAt = at
	a.LastTxDigest = txDigest
	return nil
}

// Cancel moves the auction to cancelled.
func (a *Auction) Cancel(at time.Time, txDigest string) error {
	if err := a.transition(AuctionStatusCancelled); err != nil {
		return err
	}
	a.UpdatedAt = at
	a.LastTxDigest = txDigest
	return nil
}

func (a *Auction) transition(to AuctionStatus) error {
	if !a.Status.CanTransition(to) {
		return &TransitionError{Entity: "auction", ID: a.AuctionID, From: string(a.Status), To: string(to)}
	}
	a.Status = to
	return nil
}

// Bid is append-only and references an existing auction.
type Bid struct {
	ID         int64     `db:"id" json:"id"`
	AuctionID  string    `db:"auction_id" json:"auction_id"`
	DomainName string    `db:"domain_name" json:"domain_name"`
	Bidder     string    `db:"bidder" json:"bidder"`
	Amount     string    `db:"amount" json:"amount"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	TxDigest   string    `db:"tx_digest" json:"tx_digest"`
}
