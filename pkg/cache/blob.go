package cache

import (
	"context"
	"encoding"
	"errors"
	"fmt"

	"github.com/KAIMAN-iOS/KStorage/pkg/keys"
	"github.com/KAIMAN-iOS/KStorage/pkg/storage"
)

// Converter turns a value into blob bytes.
type Converter func(v any) ([]byte, error)

// DefaultConverter converts []byte, string, and
// encoding.BinaryMarshaler values. Anything else fails with
// ErrBlobConversion.
func DefaultConverter(v any) ([]byte, error) {
	switch b := v.(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	case encoding.BinaryMarshaler:
		data, err := b.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrBlobConversion, err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: cannot convert %T", ErrBlobConversion, v)
	}
}

// SaveBlob stores raw bytes at key, bypassing the codec, and returns
// the stored path. Blobs above the configured max_blob_size fail with
// ErrBlobTooLarge before touching disk.
func (c *Cache) SaveBlob(ctx context.Context, key keys.Key, data []byte, opts ...SaveOption) (string, error) {
	if c.maxBlob > 0 && int64(len(data)) > c.maxBlob {
		return "", fmt.Errorf("%w: %d bytes exceeds %d byte cap", ErrBlobTooLarge, len(data), c.maxBlob)
	}

	path, err := c.raw.Store(ctx, key.String(), data)
	if err != nil {
		return "", err
	}

	if o := applySaveOptions(opts); o.exportName != "" {
		c.exportAsync(ctx, o.exportName, data)
	}

	return path, nil
}

// SaveBlobAsync enqueues SaveBlob on the dispatch queue.
func (c *Cache) SaveBlobAsync(ctx context.Context, key keys.Key, data []byte, done func(string, error), opts ...SaveOption) {
	if err := c.queue.Do(func() {
		path, err := c.SaveBlob(ctx, key, data, opts...)
		if done != nil {
			done(path, err)
		}
	}); err != nil && done != nil {
		done("", err)
	}
}

// SaveBlobValue converts v to bytes with conv and stores them like
// SaveBlob. A nil conv uses DefaultConverter. A conversion that yields
// no bytes fails with ErrBlobConversion.
func (c *Cache) SaveBlobValue(ctx context.Context, key keys.Key, v any, conv Converter, opts ...SaveOption) (string, error) {
	if conv == nil {
		conv = DefaultConverter
	}

	data, err := conv(v)
	if err != nil {
		if errors.Is(err, ErrBlobConversion) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrBlobConversion, err)
	}
	if data == nil {
		return "", fmt.Errorf("%w: converter produced no bytes", ErrBlobConversion)
	}

	return c.SaveBlob(ctx, key, data, opts...)
}

// FetchBlob returns the raw bytes at key. Absence is not an error: a
// key holding nothing readable yields (nil, false, nil), mirroring the
// raw store's collapse of read failures into not-found. Only key
// validation fails loudly.
func (c *Cache) FetchBlob(ctx context.Context, key keys.Key) ([]byte, bool, error) {
	data, err := c.raw.Retrieve(ctx, key.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// FetchBlobAsync enqueues FetchBlob on the dispatch queue.
func (c *Cache) FetchBlobAsync(ctx context.Context, key keys.Key, done func([]byte, bool, error)) {
	if err := c.queue.Do(func() {
		data, ok, err := c.FetchBlob(ctx, key)
		if done != nil {
			done(data, ok, err)
		}
	}); err != nil && done != nil {
		done(nil, false, err)
	}
}

// SaveTemporary stores data under a fresh one-off key and returns the
// key alongside the stored path. Temporary entries are never cleaned
// up automatically; delete them when done with them.
func (c *Cache) SaveTemporary(ctx context.Context, data []byte, opts ...SaveOption) (keys.Key, string, error) {
	key := keys.Temporary()

	path, err := c.SaveBlob(ctx, key, data, opts...)
	if err != nil {
		return "", "", err
	}

	return key, path, nil
}

// SaveTemporaryAsync enqueues SaveTemporary on the dispatch queue.
func (c *Cache) SaveTemporaryAsync(ctx context.Context, data []byte, done func(keys.Key, string, error), opts ...SaveOption) {
	if err := c.queue.Do(func() {
		key, path, err := c.SaveTemporary(ctx, data, opts...)
		if done != nil {
			done(key, path, err)
		}
	}); err != nil && done != nil {
		done("", "", err)
	}
}

// exportAsync hands data to the exporter on a background goroutine,
// never the dispatch queue: a blob save running on the worker must not
// block on its own side effect. Failures are logged and dropped.
func (c *Cache) exportAsync(ctx context.Context, name string, data []byte) {
	if c.exporter == nil {
		c.logger.Warn("export requested but no destination configured", "name", name)
		return
	}

	// The caller may reuse data once its save returns.
	buf := make([]byte, len(data))
	copy(buf, data)

	exportCtx := context.WithoutCancel(ctx)
	go func() {
		if err := c.exporter.Export(exportCtx, name, buf); err != nil {
			c.logger.Warn("export failed", "name", name, "error", err)
			return
		}
		c.logger.Debug("export completed", "name", name, "bytes", len(buf))
	}()
}
