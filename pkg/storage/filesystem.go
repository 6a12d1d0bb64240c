package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/KAIMAN-iOS/KStorage/pkg/dispatch"
	"github.com/KAIMAN-iOS/KStorage/pkg/lifecycle"
)

// filesystem implements System using the local filesystem. Keys map
// directly to relative file paths under the base path, so the directory
// tree is the only catalog of stored entries.
type filesystem struct {
	basePath string
	queue    *dispatch.Queue
	logger   *slog.Logger
}

// New creates a filesystem storage system. The base path is resolved to
// an absolute path during construction; root directory creation is
// deferred to Start or EnsureRoot. The queue carries the async forms.
func New(cfg *Config, queue *dispatch.Queue, logger *slog.Logger) (System, error) {
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("base_path required")
	}
	if queue == nil {
		return nil, fmt.Errorf("dispatch queue required")
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("resolve base_path: %w", err)
	}

	return &filesystem{
		basePath: absPath,
		queue:    queue,
		logger:   logger.With("system", "storage"),
	}, nil
}

func (f *filesystem) Start(lc *lifecycle.Coordinator) error {
	f.logger.Info("starting storage system", "base_path", f.basePath)

	lc.OnStartup(func() {
		if err := f.EnsureRoot(); err != nil {
			f.logger.Error("storage initialization failed", "error", err)
			return
		}
		f.logger.Info("storage root initialized")
	})

	return nil
}

func (f *filesystem) Root() string {
	return f.basePath
}

func (f *filesystem) EnsureRoot() error {
	if err := os.MkdirAll(f.basePath, 0755); err != nil {
		return fmt.Errorf("%w: create root %q: %w", ErrWriteFailed, f.basePath, err)
	}
	return nil
}

func (f *filesystem) Store(ctx context.Context, key string, data []byte) (string, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w: create directory: %w", ErrWriteFailed, err)
	}

	// Unique temp file per write so concurrent saves to the same key
	// cannot clobber each other's staging file; the rename stays the
	// single atomic commit point.
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrWriteFailed, err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: chmod temp file: %w", ErrWriteFailed, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: write temp file: %w", ErrWriteFailed, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: sync temp file: %w", ErrWriteFailed, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: close temp file: %w", ErrWriteFailed, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("%w: rename temp file: %w", ErrWriteFailed, err)
	}

	return path, nil
}

func (f *filesystem) StoreAsync(ctx context.Context, key string, data []byte, done func(string, error)) {
	if err := f.queue.Do(func() {
		path, err := f.Store(ctx, key, data)
		if done != nil {
			done(path, err)
		}
	}); err != nil && done != nil {
		done("", err)
	}
}

func (f *filesystem) Retrieve(ctx context.Context, key string) ([]byte, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: read %q: %w", ErrNotFound, key, err)
	}

	return data, nil
}

func (f *filesystem) RetrieveAsync(ctx context.Context, key string, done func([]byte, error)) {
	if err := f.queue.Do(func() {
		data, err := f.Retrieve(ctx, key)
		if done != nil {
			done(data, err)
		}
	}); err != nil && done != nil {
		done(nil, err)
	}
}

func (f *filesystem) Delete(ctx context.Context, key string) (string, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)

	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("%w: remove %q: %w", ErrWriteFailed, key, err)
	}

	if dir != f.basePath && strings.HasPrefix(dir, f.basePath) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			f.logger.Warn("failed to read directory for cleanup", "dir", dir, "error", err)
			return path, nil
		}

		if len(entries) == 0 {
			if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
				f.logger.Warn("failed to remove empty directory", "dir", dir, "error", err)
			}
		}
	}

	return path, nil
}

func (f *filesystem) DeleteAsync(ctx context.Context, key string, done func(string, error)) {
	if err := f.queue.Do(func() {
		path, err := f.Delete(ctx, key)
		if done != nil {
			done(path, err)
		}
	}); err != nil && done != nil {
		done("", err)
	}
}

func (f *filesystem) Validate(ctx context.Context, key string) (bool, error) {
	path, err := f.fullPath(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %q: %w", key, err)
	}

	return true, nil
}

func (f *filesystem) Path(ctx context.Context, key string) (string, error) {
	return f.fullPath(key)
}

func (f *filesystem) fullPath(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	cleaned := filepath.Clean(key)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", ErrInvalidKey
	}

	fullPath := filepath.Join(f.basePath, cleaned)

	if !strings.HasPrefix(fullPath, f.basePath) {
		return "", ErrInvalidKey
	}

	return fullPath, nil
}
