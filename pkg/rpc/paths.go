package rpc

import "strconv"

// Remote store object layout. Every checkpoint lives at its own key.
const checkpointSuffix = ".json"

func checkpointPath(seq uint64) string {
	return "/" + strconv.FormatUint(seq, 10) + checkpointSuffix
}
