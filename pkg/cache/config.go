package cache

import (
	"fmt"
	"os"

	"github.com/KAIMAN-iOS/KStorage/pkg/codec"
	"github.com/KAIMAN-iOS/KStorage/pkg/dispatch"
	"github.com/KAIMAN-iOS/KStorage/pkg/export"
	"github.com/KAIMAN-iOS/KStorage/pkg/storage"
)

// Env maps environment variable names for cache configuration,
// including the sections of every owned subsystem.
type Env struct {
	Codec    string
	Storage  *storage.Env
	Dispatch *dispatch.Env
	Export   *export.Env
}

// Config aggregates the configuration of everything a Cache owns.
type Config struct {
	// Codec selects the value serialization format ("json" or "toml").
	// Default: "json"
	Codec    string          `toml:"codec"`
	Storage  storage.Config  `toml:"storage"`
	Dispatch dispatch.Config `toml:"dispatch"`
	Export   export.Config   `toml:"export"`
}

// Finalize applies defaults, loads environment overrides, and
// validates the configuration, cascading into every owned section.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)

	if err := c.validate(); err != nil {
		return err
	}

	var storageEnv *storage.Env
	var dispatchEnv *dispatch.Env
	var exportEnv *export.Env
	if env != nil {
		storageEnv = env.Storage
		dispatchEnv = env.Dispatch
		exportEnv = env.Export
	}

	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Dispatch.Finalize(dispatchEnv); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Export.Finalize(exportEnv); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	return nil
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.Codec != "" {
		c.Codec = overlay.Codec
	}
	c.Storage.Merge(&overlay.Storage)
	c.Dispatch.Merge(&overlay.Dispatch)
	c.Export.Merge(&overlay.Export)
}

func (c *Config) loadDefaults() {
	if c.Codec == "" {
		c.Codec = "json"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.Codec); v != "" {
		c.Codec = v
	}
}

func (c *Config) validate() error {
	if _, err := codec.ByName(c.Codec); err != nil {
		return fmt.Errorf("invalid codec: %w", err)
	}
	return nil
}
