// Package export hands stored bytes to a destination outside the
// storage root, the way a saved photo is published to a shared
// gallery. The destination belongs to someone else: exporters never
// create it, and export failures never affect the save that
// triggered them.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Exporter copies named payloads to an external destination.
type Exporter interface {
	// Export writes data under name at the destination. Only the base
	// form of the name is used; exporters do not fan out into
	// subdirectories.
	Export(ctx context.Context, name string, data []byte) error
}

// Directory exports payloads as files in a fixed external directory.
type Directory struct {
	dir    string
	logger *slog.Logger
}

// New creates a directory exporter from cfg. An empty directory
// disables export: New returns (nil, nil) and callers treat a nil
// exporter as "no destination configured".
func New(cfg *Config, logger *slog.Logger) (Exporter, error) {
	if cfg.Dir == "" {
		return nil, nil
	}

	absDir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve export dir: %w", err)
	}

	return &Directory{
		dir:    absDir,
		logger: logger.With("system", "export"),
	}, nil
}

// Export writes data to a file named after the base of name. A missing
// or unwritable destination is an error; the destination is never
// created here.
func (d *Directory) Export(ctx context.Context, name string, data []byte) error {
	if name == "" {
		return fmt.Errorf("export name required")
	}

	target := filepath.Join(d.dir, filepath.Base(name))
	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("write export %q: %w", name, err)
	}

	d.logger.Debug("exported payload", "name", name, "bytes", len(data))
	return nil
}
