// Package values layers typed access over the raw byte store. Encoding
// and decoding go through a pluggable codec; Store methods cover the
// untyped operations, package-level generic functions the typed ones.
package values

import (
	"context"
	"fmt"

	"github.com/KAIMAN-iOS/KStorage/pkg/codec"
	"github.com/KAIMAN-iOS/KStorage/pkg/dispatch"
	"github.com/KAIMAN-iOS/KStorage/pkg/storage"
)

// Store persists typed values through a codec on top of the raw store.
type Store struct {
	raw   storage.System
	codec codec.Codec
	queue *dispatch.Queue
}

// New creates a serialized store over raw using c to encode values.
func New(raw storage.System, c codec.Codec, queue *dispatch.Queue) (*Store, error) {
	if raw == nil {
		return nil, fmt.Errorf("raw store required")
	}
	if c == nil {
		return nil, fmt.Errorf("codec required")
	}
	if queue == nil {
		return nil, fmt.Errorf("dispatch queue required")
	}

	return &Store{raw: raw, codec: c, queue: queue}, nil
}

// Raw returns the underlying byte store.
func (s *Store) Raw() storage.System {
	return s.raw
}

// Codec returns the codec the store encodes with.
func (s *Store) Codec() codec.Codec {
	return s.codec
}

// Delete removes the entry at key. Deleting a missing key fails with
// storage.ErrWriteFailed.
func (s *Store) Delete(ctx context.Context, key string) (string, error) {
	return s.raw.Delete(ctx, key)
}

// DeleteAsync enqueues Delete on the dispatch queue.
func (s *Store) DeleteAsync(ctx context.Context, key string, done func(string, error)) {
	s.raw.DeleteAsync(ctx, key, done)
}

// Save encodes value and stores the bytes at key, returning the stored
// path. Encoding failures surface before anything touches disk.
func Save[T any](ctx context.Context, s *Store, key string, value T) (string, error) {
	data, err := s.codec.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode %q: %w", key, err)
	}

	return s.raw.Store(ctx, key, data)
}

// SaveAsync enqueues Save on the dispatch queue; encoding happens on
// the worker alongside the write.
func SaveAsync[T any](ctx context.Context, s *Store, key string, value T, done func(string, error)) {
	if err := s.queue.Do(func() {
		path, err := Save(ctx, s, key, value)
		if done != nil {
			done(path, err)
		}
	}); err != nil && done != nil {
		done("", err)
	}
}

// Fetch retrieves the bytes at key and decodes them into T. A missing
// key yields storage.ErrNotFound; bytes that cannot decode into T
// yield codec.ErrDecode. The two stay distinct at this layer.
func Fetch[T any](ctx context.Context, s *Store, key string) (T, error) {
	var value T

	data, err := s.raw.Retrieve(ctx, key)
	if err != nil {
		return value, err
	}

	if err := s.codec.Unmarshal(data, &value); err != nil {
		var zero T
		return zero, fmt.Errorf("decode %q: %w", key, err)
	}

	return value, nil
}

// FetchAsync enqueues Fetch on the dispatch queue.
func FetchAsync[T any](ctx context.Context, s *Store, key string, done func(T, error)) {
	if err := s.queue.Do(func() {
		value, err := Fetch[T](ctx, s, key)
		if done != nil {
			done(value, err)
		}
	}); err != nil && done != nil {
		var zero T
		done(zero, err)
	}
}
