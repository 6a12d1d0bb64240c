// Package storage provides the raw byte store underpinning KStorage.
// It defines a System interface for key/value persistence and includes
// a filesystem implementation that maps keys directly to files under a
// configurable root directory.
package storage

import "errors"

// Storage errors returned by System implementations.
var (
	// ErrNotFound indicates the requested key does not exist in storage.
	// Read failures of any kind match this error; when the cause was not
	// a missing file it stays wrapped alongside for diagnosis.
	ErrNotFound = errors.New("storage: key not found")

	// ErrWriteFailed indicates a store or delete operation failed.
	// The underlying cause is wrapped and reachable via errors.Is/As.
	ErrWriteFailed = errors.New("storage: write failed")

	// ErrInvalidKey indicates the key is malformed.
	// This includes empty keys, absolute paths, and path traversal attempts.
	ErrInvalidKey = errors.New("storage: invalid key")
)
