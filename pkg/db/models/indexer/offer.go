package indexer

import (
	"time"
)

const OfferPlacedTableName = "offer_placed"
const OfferCancelledTableName = "offer_cancelled"
const OffersTableName = "offers"

// OfferPlaced is an append-only log entry. Cancellation never touches it.
type OfferPlaced struct {
	ID         int64     `db:"id" json:"id"`
	DomainName string    `db:"domain_name" json:"domain_name"`
	Address    string    `db:"address" json:"address"`
	Value      string    `db:"value" json:"value"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	TxDigest   string    `db:"tx_digest" json:"tx_digest"`
}

// OfferCancelled is an append-only log entry.
type OfferCancelled struct {
	ID         int64     `db:"id" json:"id"`
	DomainName string    `db:"domain_name" json:"domain_name"`
	Address    string    `db:"address" json:"address"`
	Value      string    `db:"value" json:"value"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	TxDigest   string    `db:"tx_digest" json:"tx_digest"`
}

// OfferStatus tracks the negotiation state of a row in the offers table.
type OfferStatus string

const (
	OfferStatusPlaced            OfferStatus = "placed"
	OfferStatusCancelled         OfferStatus = "cancelled"
	OfferStatusAccepted          OfferStatus = "accepted"
	OfferStatusDeclined          OfferStatus = "declined"
	OfferStatusCountered         OfferStatus = "countered"
	OfferStatusAcceptedCountered OfferStatus = "accepted_countered"
)

var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusPlaced:    {OfferStatusCancelled, OfferStatusAccepted, OfferStatusDeclined, OfferStatusCountered},
	OfferStatusCountered: {OfferStatusAcceptedCountered, OfferStatusCancelled, OfferStatusDeclined},
}

func (s OfferStatus) Terminal() bool {
	return len(offerTransitions[s]) == 0
}

func (s OfferStatus) CanTransition(to OfferStatus) bool {
	for _, next := range offerTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Offer is the current state of the latest offer a buyer made for a domain.
type Offer struct {
	ID           int64       `db:"id" json:"id"`
	DomainName   string      `db:"domain_name" json:"domain_name"`
	Buyer        string      `db:"buyer" json:"buyer"`
	InitialValue string      `db:"initial_value" json:"initial_value"`
	Value        string      `db:"value" json:"value"`
	Owner        *string     `db:"owner" json:"owner"`
	Status       OfferStatus `db:"status" json:"status"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	LastTxDigest string      `db:"last_tx_digest" json:"last_tx_digest"`
}

// Transition applies a lifecycle event. owner is kept when nil.
func (o *Offer) Transition(to OfferStatus, value string, owner *string, at time.Time, txDigest string) error {
	if !o.Status.CanTransition(to) {
		return &TransitionError{Entity: "offer", ID: o.DomainName + "/" + o.Buyer, From: string(o.Status), To: string(to)}
	}
	o.Status = to
	o.Value = value
	if owner != nil {
		o.Owner = owner
	}
	o.UpdatedAt = at
	o.LastTxDigest = txDigest
	return nil
}
