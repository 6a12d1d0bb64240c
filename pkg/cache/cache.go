package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/KAIMAN-iOS/KStorage/pkg/codec"
	"github.com/KAIMAN-iOS/KStorage/pkg/dispatch"
	"github.com/KAIMAN-iOS/KStorage/pkg/export"
	"github.com/KAIMAN-iOS/KStorage/pkg/keys"
	"github.com/KAIMAN-iOS/KStorage/pkg/lifecycle"
	"github.com/KAIMAN-iOS/KStorage/pkg/storage"
	"github.com/KAIMAN-iOS/KStorage/pkg/values"
)

// Cache is the storage façade. It exclusively owns its raw store,
// value store, dispatch queue, and exporter; nothing else reads or
// writes the storage root while a Cache is live.
type Cache struct {
	queue    *dispatch.Queue
	raw      storage.System
	values   *values.Store
	exporter export.Exporter
	logger   *slog.Logger
	maxBlob  int64
}

// New assembles a cache and everything it owns from cfg. The
// configuration should be finalized first. New initializes the owned
// systems but does not start them; call Start, or EnsureRoot for use
// without a coordinator.
func New(cfg *Config, logger *slog.Logger) (*Cache, error) {
	cdc, err := codec.ByName(cfg.Codec)
	if err != nil {
		return nil, fmt.Errorf("codec init failed: %w", err)
	}

	queue := dispatch.New(&cfg.Dispatch, logger)

	raw, err := storage.New(&cfg.Storage, queue, logger)
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	vals, err := values.New(raw, cdc, queue)
	if err != nil {
		return nil, fmt.Errorf("values init failed: %w", err)
	}

	exporter, err := export.New(&cfg.Export, logger)
	if err != nil {
		return nil, fmt.Errorf("export init failed: %w", err)
	}

	return &Cache{
		queue:    queue,
		raw:      raw,
		values:   vals,
		exporter: exporter,
		logger:   logger.With("system", "cache"),
		maxBlob:  cfg.Storage.MaxBlobSizeBytes(),
	}, nil
}

// Start registers the owned systems with the lifecycle coordinator:
// root creation on startup, queue drain on shutdown.
func (c *Cache) Start(lc *lifecycle.Coordinator) error {
	c.logger.Info("starting cache", "root", c.raw.Root(), "codec", c.values.Codec().Name())

	if err := c.queue.Start(lc); err != nil {
		return fmt.Errorf("dispatch start failed: %w", err)
	}
	if err := c.raw.Start(lc); err != nil {
		return fmt.Errorf("storage start failed: %w", err)
	}

	return nil
}

// Root returns the absolute storage root directory.
func (c *Cache) Root() string {
	return c.raw.Root()
}

// EnsureRoot creates the storage root if it does not exist. Idempotent.
func (c *Cache) EnsureRoot() error {
	return c.raw.EnsureRoot()
}

// Wait blocks until all asynchronous work submitted so far has finished.
func (c *Cache) Wait() {
	c.queue.Wait()
}

// Close drains the dispatch queue and stops accepting asynchronous
// work. For embedders running without a lifecycle coordinator.
func (c *Cache) Close() {
	c.queue.Close()
}

// Delete removes the entry at key. Deleting a key that holds nothing
// fails with an error matching storage.ErrWriteFailed.
func (c *Cache) Delete(ctx context.Context, key keys.Key) error {
	_, err := c.values.Delete(ctx, key.String())
	return err
}

// DeleteAsync enqueues Delete on the dispatch queue.
func (c *Cache) DeleteAsync(ctx context.Context, key keys.Key, done func(error)) {
	c.values.DeleteAsync(ctx, key.String(), func(_ string, err error) {
		if done != nil {
			done(err)
		}
	})
}

// Save encodes value with the cache's codec and stores it at key,
// returning the stored path.
func Save[T any](ctx context.Context, c *Cache, key keys.Key, value T) (string, error) {
	return values.Save(ctx, c.values, key.String(), value)
}

// SaveAsync enqueues Save on the dispatch queue.
func SaveAsync[T any](ctx context.Context, c *Cache, key keys.Key, value T, done func(string, error)) {
	values.SaveAsync(ctx, c.values, key.String(), value, done)
}

// Retrieve fetches and decodes the value at key. An absent entry and
// an entry whose bytes no longer decode into T both read as not-found;
// either way the caller has nothing usable cached. The decode kind
// stays wrapped, so errors.Is(err, codec.ErrDecode) still identifies a
// corrupt entry.
func Retrieve[T any](ctx context.Context, c *Cache, key keys.Key) (T, error) {
	value, err := values.Fetch[T](ctx, c.values, key.String())
	if err != nil {
		var zero T
		return zero, collapseDecode(err)
	}
	return value, nil
}

// RetrieveAsync enqueues Retrieve on the dispatch queue.
func RetrieveAsync[T any](ctx context.Context, c *Cache, key keys.Key, done func(T, error)) {
	if err := c.queue.Do(func() {
		value, err := Retrieve[T](ctx, c, key)
		if done != nil {
			done(value, err)
		}
	}); err != nil && done != nil {
		var zero T
		done(zero, err)
	}
}

func collapseDecode(err error) error {
	if errors.Is(err, codec.ErrDecode) {
		return fmt.Errorf("%w: %w", storage.ErrNotFound, err)
	}
	return err
}
