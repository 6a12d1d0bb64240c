package dispatch

import (
	"fmt"
	"os"
	"strconv"
)

// Env maps environment variable names for dispatch configuration.
type Env struct {
	QueueSize string
}

// Config contains dispatch queue configuration.
type Config struct {
	// QueueSize is the capacity of the work buffer. Submitters block
	// once the buffer is full.
	// Default: 64
	QueueSize int `toml:"queue_size"`
}

// Finalize applies defaults, loads environment overrides, and validates the configuration.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.QueueSize != 0 {
		c.QueueSize = overlay.QueueSize
	}
}

func (c *Config) loadDefaults() {
	if c.QueueSize == 0 {
		c.QueueSize = 64
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.QueueSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.QueueSize = n
		}
	}
}

func (c *Config) validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive")
	}
	return nil
}
