// Package config assembles the root KStorage configuration from TOML
// files, environment variable overrides, and environment-specific
// overlays.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/KAIMAN-iOS/KStorage/pkg/cache"
	"github.com/KAIMAN-iOS/KStorage/pkg/dispatch"
	"github.com/KAIMAN-iOS/KStorage/pkg/export"
	"github.com/KAIMAN-iOS/KStorage/pkg/logging"
	"github.com/KAIMAN-iOS/KStorage/pkg/storage"
	"github.com/pelletier/go-toml/v2"
)

const (
	// DefaultConfigFile is the configuration file read when no path is given.
	DefaultConfigFile = "config.toml"

	// EnvStorageEnv selects the environment-specific configuration overlay.
	EnvStorageEnv = "KSTORAGE_ENV"

	// EnvBasePath overrides the storage root directory.
	EnvBasePath = "KSTORAGE_BASE_PATH"

	// EnvMaxBlobSize overrides the largest accepted blob, e.g. "32MB".
	EnvMaxBlobSize = "KSTORAGE_MAX_BLOB_SIZE"

	// EnvQueueSize overrides the background dispatch queue capacity.
	EnvQueueSize = "KSTORAGE_QUEUE_SIZE"

	// EnvExportDir overrides the export destination directory.
	EnvExportDir = "KSTORAGE_EXPORT_DIR"

	// EnvCodec overrides the serialization codec name.
	EnvCodec = "KSTORAGE_CODEC"

	// EnvLogLevel overrides the minimum log level.
	EnvLogLevel = "KSTORAGE_LOG_LEVEL"

	// EnvLogFormat overrides the log output format.
	EnvLogFormat = "KSTORAGE_LOG_FORMAT"
)

// Config represents the root KStorage configuration.
type Config struct {
	Cache   cache.Config   `toml:"cache"`
	Logging logging.Config `toml:"logging"`
}

// Load reads the configuration file at path and applies any
// environment-specific overlay selected by KSTORAGE_ENV. A missing
// base file is not an error; every setting has a usable default.
func Load(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}

	if overlay := overlayPath(path); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}
	return cfg, nil
}

// Finalize applies defaults, loads environment overrides from the
// canonical KSTORAGE_* variables, and validates the configuration.
func (c *Config) Finalize() error {
	if err := c.Cache.Finalize(cacheEnv()); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Logging.Finalize(loggingEnv()); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}

// Merge applies values from overlay configuration that differ from zero values.
func (c *Config) Merge(overlay *Config) {
	c.Cache.Merge(&overlay.Cache)
	c.Logging.Merge(&overlay.Logging)
}

func cacheEnv() *cache.Env {
	return &cache.Env{
		Codec: EnvCodec,
		Storage: &storage.Env{
			BasePath:    EnvBasePath,
			MaxBlobSize: EnvMaxBlobSize,
		},
		Dispatch: &dispatch.Env{QueueSize: EnvQueueSize},
		Export:   &export.Env{Dir: EnvExportDir},
	}
}

func loggingEnv() *logging.Env {
	return &logging.Env{
		Level:  EnvLogLevel,
		Format: EnvLogFormat,
	}
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(path string) string {
	env := os.Getenv(EnvStorageEnv)
	if env == "" {
		return ""
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	overlay := fmt.Sprintf("%s.%s.toml", base, env)
	if _, err := os.Stat(overlay); err == nil {
		return overlay
	}
	return ""
}
