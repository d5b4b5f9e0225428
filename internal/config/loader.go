package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"warden/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir  = ".config/warden"
	configFileName = "config.yaml"
)

// GetDefaultConfigPathOrPanic returns the per-user config directory.
func GetDefaultConfigPathOrPanic() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// LoadConfig loads configuration from the specified directory. A missing
// config.yaml is not an error; defaults apply.
func LoadConfig(configPath string) (WardenConfig, error) {
	configFilePath := filepath.Join(configPath, configFileName)
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
			return cfg, nil
		}
		logging.Info("ConfigLoader", "Error loading config.yaml from %s: %s", configFilePath, err)
		return WardenConfig{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WardenConfig{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if err := cfg.Validate(); err != nil {
		return WardenConfig{}, fmt.Errorf("invalid config at %s: %w", configFilePath, err)
	}
	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return cfg, nil
}

// Validate rejects configurations the operator cannot run with.
func (c WardenConfig) Validate() error {
	switch c.Reconciler.Mode {
	case WatchModeKubernetes, WatchModeFilesystem:
	default:
		return fmt.Errorf("reconciler.mode must be %q or %q, got %q",
			WatchModeKubernetes, WatchModeFilesystem, c.Reconciler.Mode)
	}
	if c.Reconciler.Mode == WatchModeFilesystem && c.Reconciler.ManifestDir == "" {
		return fmt.Errorf("reconciler.manifestDir is required in filesystem mode")
	}
	if c.Reconciler.Workers < 1 {
		return fmt.Errorf("reconciler.workers must be at least 1, got %d", c.Reconciler.Workers)
	}
	if c.Reconciler.MaxRetries < 0 {
		return fmt.Errorf("reconciler.maxRetries must not be negative, got %d", c.Reconciler.MaxRetries)
	}
	if c.Reconciler.RetryInitial <= 0 || c.Reconciler.RetryMax < c.Reconciler.RetryInitial {
		return fmt.Errorf("reconciler retry bounds invalid: initial=%s max=%s",
			c.Reconciler.RetryInitial.Std(), c.Reconciler.RetryMax.Std())
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}
	if c.Backup.DumpRetries < 0 {
		return fmt.Errorf("backup.dumpRetries must not be negative, got %d", c.Backup.DumpRetries)
	}
	if c.Backup.UploadRetries < 0 {
		return fmt.Errorf("backup.uploadRetries must not be negative, got %d", c.Backup.UploadRetries)
	}
	return nil
}
