package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/canopy-network/suinsx/pkg/db"
	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/indexer/events"
	"github.com/canopy-network/suinsx/pkg/metrics"
)

// OffersHandler keeps one row per offer with its current negotiation status. Every event after
// the placement targets the buyer's latest offer on the domain.
type OffersHandler struct{}

func (OffersHandler) Name() string { return OffersPipeline }

func (OffersHandler) Wants(kind events.Kind) bool {
	switch kind {
	case events.KindOfferPlaced, events.KindOfferCancelled, events.KindOfferAccepted,
		events.KindOfferDeclined, events.KindCounterOfferMade, events.KindCounterOfferAccepted:
		return true
	}
	return false
}

// offerUpdate is the common shape of every event that moves an existing offer.
type offerUpdate struct {
	domainName string
	buyer      string
	value      string
	owner      *string
	to         indexermodels.OfferStatus
}

func (OffersHandler) Apply(ctx context.Context, tx db.Tx, batch *Batch, res *Result) error {
	for _, ev := range batch.Events {
		meta := ev.Metadata()

		var upd offerUpdate
		switch e := ev.(type) {
		case events.OfferPlaced:
			err := tx.InsertOffer(ctx, &indexermodels.Offer{
				DomainName:   e.DomainName,
				Buyer:        e.Address,
				InitialValue: e.Value.String(),
				Value:        e.Value.String(),
				Status:       indexermodels.OfferStatusPlaced,
				UpdatedAt:    e.Timestamp,
				CreatedAt:    e.Timestamp,
				LastTxDigest: e.TxDigest,
			})
			if err != nil {
				return err
			}
			res.Rows++
			res.countEvent(ev.Kind())
			continue
		case events.OfferCancelled:
			upd = offerUpdate{e.DomainName, e.Address, e.Value.String(), nil, indexermodels.OfferStatusCancelled}
		case events.OfferAccepted:
			upd = offerUpdate{e.DomainName, e.Buyer, e.Value.String(), &e.Owner, indexermodels.OfferStatusAccepted}
		case events.OfferDeclined:
			upd = offerUpdate{e.DomainName, e.Buyer, e.Value.String(), &e.Owner, indexermodels.OfferStatusDeclined}
		case events.CounterOfferMade:
			upd = offerUpdate{e.DomainName, e.Buyer, e.Value.String(), &e.Owner, indexermodels.OfferStatusCountered}
		case events.CounterOfferAccepted:
			upd = offerUpdate{e.DomainName, e.Buyer, e.Value.String(), nil, indexermodels.OfferStatusAcceptedCountered}
		default:
			return fmt.Errorf("offers: unexpected %s", ev.Kind())
		}

		offer, err := tx.LatestOffer(ctx, upd.domainName, upd.buyer)
		if errors.Is(err, db.ErrOfferNotFound) {
			res.anomaly(metrics.ReasonMissingOffer, meta, err)
			continue
		}
		if err != nil {
			return err
		}

		var te *indexermodels.TransitionError
		err = offer.Transition(upd.to, upd.value, upd.owner, meta.Timestamp, meta.TxDigest)
		if errors.As(err, &te) {
			res.anomaly(metrics.ReasonIllegalTransition, meta, err)
			continue
		}
		if err != nil {
			return err
		}

		if err := tx.UpdateOffer(ctx, offer); err != nil {
			return err
		}
		res.Rows++
		res.countEvent(ev.Kind())
	}
	return nil
}
