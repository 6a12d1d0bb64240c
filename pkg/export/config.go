package export

import "os"

// Env maps environment variable names for export configuration.
type Env struct {
	Dir string
}

// Config contains export configuration.
type Config struct {
	// Dir is the external directory exported payloads are copied to.
	// Empty disables export.
	Dir string `toml:"dir"`
}

// Finalize loads environment overrides. Export has no defaults: an
// unset directory simply disables the feature.
func (c *Config) Finalize(env *Env) error {
	c.loadEnv(env)
	return nil
}

// Merge applies non-zero values from the overlay configuration.
func (c *Config) Merge(overlay *Config) {
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.Dir); v != "" {
		c.Dir = v
	}
}
