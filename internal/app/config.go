package app

import (
	"warden/internal/config"
)

// Config holds the operator process configuration assembled from CLI flags.
type Config struct {
	// Debug settings
	Debug bool

	// Custom configuration directory (optional)
	// When set, configuration is loaded from this directory instead of
	// the per-user default.
	ConfigPath string

	// Namespace overrides the watched namespace from the config file.
	Namespace string

	// Environment configuration
	WardenConfig *config.WardenConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath, namespace string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
		Namespace:  namespace,
	}
}
