// Package cache provides the storage façade: one handle owning a raw
// byte store, a typed value store, a serial dispatch queue, and an
// optional exporter, behind typed, blob, and asynchronous entry points.
// Construct one Cache per storage root at the composition root and
// pass it explicitly.
package cache

import "errors"

// Cache errors returned by the blob entry points.
var (
	// ErrBlobConversion indicates a value could not be turned into
	// blob bytes.
	ErrBlobConversion = errors.New("cache: blob conversion failed")

	// ErrBlobTooLarge indicates a blob exceeds the configured
	// max_blob_size cap.
	ErrBlobTooLarge = errors.New("cache: blob too large")
)
