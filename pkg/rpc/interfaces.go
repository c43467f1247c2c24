package rpc

import (
	"context"
	"errors"

	"github.com/canopy-network/suinsx/pkg/indexer/types"
)

// ErrCheckpointNotFound means the checkpoint is not published yet. Callers poll instead of
// treating it as a failure.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Source delivers checkpoints by sequence number.
type Source interface {
	Checkpoint(ctx context.Context, seq uint64) (*types.Checkpoint, error)
}
