// Package config provides configuration management for the warden operator.
//
// Configuration is loaded from a single directory containing config.yaml.
// The default directory is ~/.config/warden; a custom directory can be
// given with the --config-path flag. A missing config.yaml is not an
// error: GetDefaultConfig supplies every value.
//
// The file is read once at startup. The operator never re-reads it; a
// restart picks up changes.
//
// # Sections
//
//   - reconciler: watch mode, worker count, retry and resync timing
//   - metrics: Prometheus exposition endpoint
//   - backup: scratch directory and upload retry behavior
//
// Durations are written as Go duration strings ("30s", "5m").
package config
