package pipeline

import (
	"context"
	"fmt"

	"github.com/canopy-network/suinsx/pkg/db"
	"github.com/canopy-network/suinsx/pkg/indexer/events"
	"github.com/canopy-network/suinsx/pkg/indexer/types"
)

const (
	OfferEventsPipeline = "offer-events"
	OffersPipeline      = "offers"
	AuctionsPipeline    = "auctions"
)

// Names lists the known pipelines in their default start order.
var Names = []string{OfferEventsPipeline, OffersPipeline, AuctionsPipeline}

// Batch is the slice of a checkpoint one pipeline cares about.
type Batch struct {
	Checkpoint *types.Checkpoint
	Events     []events.Event

	// SkipOrphans turns references to unknown auctions into anomalies instead of errors. The
	// worker sets it once retrying the checkpoint stopped helping.
	SkipOrphans bool
}

// Handler maps a pipeline's events onto row mutations inside the checkpoint transaction.
// Apply must not keep state across calls: a failed transaction is retried with a fresh Result.
type Handler interface {
	Name() string
	Wants(kind events.Kind) bool
	Apply(ctx context.Context, tx db.Tx, batch *Batch, res *Result) error
}

// NewHandler returns the handler registered under name.
func NewHandler(name string) (Handler, error) {
	switch name {
	case OfferEventsPipeline:
		return OfferEventsHandler{}, nil
	case OffersPipeline:
		return OffersHandler{}, nil
	case AuctionsPipeline:
		return AuctionsHandler{}, nil
	default:
		return nil, fmt.Errorf("unknown pipeline %q", name)
	}
}
