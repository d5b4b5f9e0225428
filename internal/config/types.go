package config

import "time"

// WardenConfig is the top-level configuration structure for the operator
// process. It is loaded once at startup and treated as read-only afterwards.
type WardenConfig struct {
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Backup     BackupConfig     `yaml:"backup"`
}

// WatchMode selects how the operator observes desired state.
type WatchMode string

const (
	// WatchModeKubernetes watches Platform resources through the API server.
	WatchModeKubernetes WatchMode = "kubernetes"
	// WatchModeFilesystem watches a directory of Platform YAML manifests.
	// Intended for local development against a kind cluster.
	WatchModeFilesystem WatchMode = "filesystem"
)

// ReconcilerConfig tunes the reconciliation loop.
type ReconcilerConfig struct {
	Mode          WatchMode `yaml:"mode,omitempty"`          // kubernetes or filesystem (default: kubernetes)
	ManifestDir   string    `yaml:"manifestDir,omitempty"`   // watched directory in filesystem mode
	Namespace     string    `yaml:"namespace,omitempty"`     // namespace to watch, empty means all
	Workers       int       `yaml:"workers,omitempty"`       // concurrent reconcile workers (default: 4)
	MaxRetries    int       `yaml:"maxRetries,omitempty"`    // retry cap for retryable failures (default: 5)
	RetryInitial  Duration  `yaml:"retryInitial,omitempty"`  // first retry delay (default: 2s)
	RetryMax      Duration  `yaml:"retryMax,omitempty"`      // retry delay cap (default: 5m)
	Timeout       Duration  `yaml:"timeout,omitempty"`       // per-reconcile deadline (default: 2m)
	ResyncPeriod  Duration  `yaml:"resyncPeriod,omitempty"`  // periodic full resync (default: 10m)
	DegradedRetry Duration  `yaml:"degradedRetry,omitempty"` // recheck interval for degraded platforms (default: 30s)
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`           // endpoint on/off (default: true)
	Addr    string `yaml:"addr,omitempty"`    // listen address (default: :8085)
	Path    string `yaml:"path,omitempty"`    // scrape path (default: /metrics)
}

// BackupConfig tunes the backup pipeline independently of per-platform
// policy carried on the Platform resource.
type BackupConfig struct {
	WorkDir       string   `yaml:"workDir,omitempty"`       // scratch space for dump and archive steps (default: os temp)
	DumpRetries   int      `yaml:"dumpRetries,omitempty"`   // retry cap for failed database dumps (default: 3)
	DumpBackoff   Duration `yaml:"dumpBackoff,omitempty"`   // first dump retry delay (default: 10s)
	UploadRetries int      `yaml:"uploadRetries,omitempty"` // retry cap for transient upload failures (default: 3)
	UploadBackoff Duration `yaml:"uploadBackoff,omitempty"` // first upload retry delay (default: 5s)
}

// Duration wraps time.Duration so YAML values like "30s" parse directly.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
