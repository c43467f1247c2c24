package pipeline

import (
	"context"
	"fmt"

	"github.com/canopy-network/suinsx/pkg/db"
	indexermodels "github.com/canopy-network/suinsx/pkg/db/models/indexer"
	"github.com/canopy-network/suinsx/pkg/indexer/events"
)

// OfferEventsHandler appends offer placements and cancellations to their log tables. It owns
// the events cursor, which makes a replayed checkpoint a no-op even when the watermark was
// reset below it.
type OfferEventsHandler struct{}

func (OfferEventsHandler) Name() string { return OfferEventsPipeline }

func (OfferEventsHandler) Wants(kind events.Kind) bool {
	return kind == events.KindOfferPlaced || kind == events.KindOfferCancelled
}

func (OfferEventsHandler) Apply(ctx context.Context, tx db.Tx, batch *Batch, res *Result) error {
	if len(batch.Events) == 0 {
		return nil
	}

	cursor := indexermodels.NewEventsCursor(batch.Checkpoint.SequenceNumber, batch.Events[0].Metadata().TxDigest)
	fresh, err := tx.RecordCursor(ctx, cursor)
	if err != nil {
		return err
	}
	if !fresh {
		res.Replayed = true
		return nil
	}
	res.Rows++

	var placed []*indexermodels.OfferPlaced
	var cancelled []*indexermodels.OfferCancelled
	for _, ev := range batch.Events {
		switch e := ev.(type) {
		case events.OfferPlaced:
			placed = append(placed, &indexermodels.OfferPlaced{
				DomainName: e.DomainName,
				Address:    e.Address,
				Value:      e.Value.String(),
				CreatedAt:  e.Timestamp,
				TxDigest:   e.TxDigest,
			})
		case events.OfferCancelled:
			cancelled = append(cancelled, &indexermodels.OfferCancelled{
				DomainName: e.DomainName,
				Address:    e.Address,
				Value:      e.Value.String(),
				CreatedAt:  e.Timestamp,
				TxDigest:   e.TxDigest,
			})
		default:
			return fmt.Errorf("offer-events: unexpected %s", ev.Kind())
		}
		res.countEvent(ev.Kind())
	}

	if err := tx.InsertOfferPlaced(ctx, placed); err != nil {
		return err
	}
	if err := tx.InsertOfferCancelled(ctx, cancelled); err != nil {
		return err
	}
	res.Rows += len(placed) + len(cancelled)
	return nil
}
