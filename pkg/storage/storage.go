package storage

import (
	"context"

	"github.com/KAIMAN-iOS/KStorage/pkg/lifecycle"
)

// System defines the raw store operations interface. Implementations
// handle the underlying persistence mechanism while providing a
// consistent byte-level API for storing and retrieving values.
//
// Every operation has an asynchronous form that runs the same logic on
// the store's serial dispatch queue and delivers the outcome through a
// callback invoked on the worker goroutine. Queued operations run in
// submission order; a nil callback discards the outcome.
type System interface {
	// Store saves data at the specified key, overwriting any previous
	// value. Parent directories are created as needed. The write is
	// atomic: concurrent readers observe either the old value or the
	// new one, never a mix. Returns the absolute path of the stored
	// entry, or an error matching ErrWriteFailed with the cause
	// wrapped. Returns ErrInvalidKey if the key is malformed.
	Store(ctx context.Context, key string, data []byte) (string, error)

	// StoreAsync enqueues Store on the dispatch queue.
	StoreAsync(ctx context.Context, key string, data []byte, done func(string, error))

	// Retrieve returns the data stored at the specified key. A missing
	// key yields ErrNotFound; any other read failure also matches
	// ErrNotFound with the cause wrapped alongside.
	Retrieve(ctx context.Context, key string) ([]byte, error)

	// RetrieveAsync enqueues Retrieve on the dispatch queue.
	RetrieveAsync(ctx context.Context, key string, done func([]byte, error))

	// Delete removes the entry at the specified key and returns the
	// path it occupied. Deleting a key that does not exist is an error
	// matching ErrWriteFailed, with fs.ErrNotExist wrapped as the
	// cause. Newly empty parent directories are cleaned up.
	Delete(ctx context.Context, key string) (string, error)

	// DeleteAsync enqueues Delete on the dispatch queue.
	DeleteAsync(ctx context.Context, key string, done func(string, error))

	// Validate checks if a key exists.
	// Returns (true, nil) if the key exists and is readable.
	// Returns (false, nil) if the key does not exist.
	// Returns (false, error) for permission or system errors.
	Validate(ctx context.Context, key string) (bool, error)

	// Path resolves the absolute on-disk path for a key without
	// touching the entry. Returns ErrInvalidKey if the key is malformed.
	Path(ctx context.Context, key string) (string, error)

	// Root returns the absolute root directory of the store.
	Root() string

	// EnsureRoot creates the root directory if it does not exist.
	// Idempotent.
	EnsureRoot() error

	// Start registers lifecycle hooks with the coordinator.
	// For filesystem storage, this creates the root directory.
	Start(lc *lifecycle.Coordinator) error
}
