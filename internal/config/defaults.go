package config

import "time"

// GetDefaultConfig returns the configuration used when no config file is
// present. Every field can be overridden from config.yaml.
func GetDefaultConfig() WardenConfig {
	return WardenConfig{
		Reconciler: ReconcilerConfig{
			Mode:          WatchModeKubernetes,
			Workers:       4,
			MaxRetries:    5,
			RetryInitial:  Duration(2 * time.Second),
			RetryMax:      Duration(5 * time.Minute),
			Timeout:       Duration(2 * time.Minute),
			ResyncPeriod:  Duration(10 * time.Minute),
			DegradedRetry: Duration(30 * time.Second),
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":8085",
			Path:    "/metrics",
		},
		Backup: BackupConfig{
			DumpRetries:   3,
			DumpBackoff:   Duration(10 * time.Second),
			UploadRetries: 3,
			UploadBackoff: Duration(5 * time.Second),
		},
	}
}
