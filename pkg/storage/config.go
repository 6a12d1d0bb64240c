package storage

import (
	"fmt"
	"os"

	"github.com/docker/go-units"
)

// Env maps environment variable names for storage configuration.
type Env struct {
	BasePath    string
	MaxBlobSize string
}

// Config contains raw store configuration.
type Config struct {
	// BasePath is the root directory for the store. Deployments point
	// this at the application's private data area.
	// Default: ".data/storage"
	BasePath string `toml:"base_path"`

	// MaxBlobSize caps a single blob write, in human-readable form
	// ("32MB", "512KB"). Enforced by the blob entry points, not the
	// byte-level store.
	// Default: "32MB"
	MaxBlobSize    string `toml:"max_blob_size"`
	maxBlobSizeVal int64
}

// MaxBlobSizeBytes returns the parsed blob size cap in bytes.
func (c *Config) MaxBlobSizeBytes() int64 {
	return c.maxBlobSizeVal
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if size, err := units.FromHumanSize(overlay.MaxBlobSize); err == nil {
		c.MaxBlobSize = overlay.MaxBlobSize
		c.maxBlobSizeVal = size
	}
}

func (c *Config) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = ".data/storage"
	}
	if c.MaxBlobSize == "" {
		c.MaxBlobSize = "32MB"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.BasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(env.MaxBlobSize); v != "" {
		c.MaxBlobSize = v
	}
}

func (c *Config) validate() error {
	if c.BasePath == "" {
		return fmt.Errorf("base_path required")
	}

	size, err := units.FromHumanSize(c.MaxBlobSize)
	if err != nil {
		return fmt.Errorf("invalid max_blob_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_blob_size must be positive")
	}
	c.maxBlobSizeVal = size

	return nil
}
