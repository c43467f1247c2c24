package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/canopy-network/suinsx/pkg/indexer/types"
)

var _ Source = (*LocalSource)(nil)

// LocalSource reads checkpoints written as <seq>.json into a directory, the layout a local
// ingestion job or a test fixture produces.
type LocalSource struct {
	dir string
}

func NewLocalSource(dir string) *LocalSource {
	return &LocalSource{dir: dir}
}

func (s *LocalSource) Checkpoint(ctx context.Context, seq uint64) (*types.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, strconv.FormatUint(seq, 10)+checkpointSuffix)
	bz, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("checkpoint %d: %w", seq, ErrCheckpointNotFound)
		}
		return nil, fmt.Errorf("checkpoint %d: %w", seq, err)
	}

	var cp types.Checkpoint
	if err := json.Unmarshal(bz, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint %d: decode %s: %w", seq, path, err)
	}
	if cp.SequenceNumber != seq {
		return nil, fmt.Errorf("checkpoint %d: file %s holds sequence %d", seq, path, cp.SequenceNumber)
	}
	return &cp, nil
}
