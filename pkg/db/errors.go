package db

import "errors"

var (
	ErrAuctionExists      = errors.New("auction already exists")
	ErrAuctionNotFound    = errors.New("auction not found")
	ErrOfferNotFound      = errors.New("offer not found")
	ErrWatermarkNotFound  = errors.New("watermark not found")
	ErrWatermarkRegressed = errors.New("watermark would not advance")

	// ErrTransient marks store failures worth retrying as-is: dropped connections,
	// serialization failures, deadlocks.
	ErrTransient = errors.New("transient store failure")
)
