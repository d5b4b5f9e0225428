package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, configFileName), []byte(content), 0644)
	require.NoError(t, err)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	tempDir := t.TempDir()

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), cfg)
	assert.Equal(t, WatchModeKubernetes, cfg.Reconciler.Mode)
	assert.Equal(t, 4, cfg.Reconciler.Workers)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `
reconciler:
  workers: 8
  namespace: platforms
  retryInitial: 1s
  retryMax: 90s
metrics:
  enabled: true
  addr: ":9123"
backup:
  uploadRetries: 5
`)

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Reconciler.Workers)
	assert.Equal(t, "platforms", cfg.Reconciler.Namespace)
	assert.Equal(t, time.Second, cfg.Reconciler.RetryInitial.Std())
	assert.Equal(t, 90*time.Second, cfg.Reconciler.RetryMax.Std())
	assert.Equal(t, ":9123", cfg.Metrics.Addr)
	assert.Equal(t, 5, cfg.Backup.UploadRetries)

	// Unset sections keep defaults.
	assert.Equal(t, WatchModeKubernetes, cfg.Reconciler.Mode)
	assert.Equal(t, 2*time.Minute, cfg.Reconciler.Timeout.Std())
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, "reconciler: [not a map")

	_, err := LoadConfig(tempDir)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*WardenConfig)
		wantErr string
	}{
		{
			name:   "default config is valid",
			mutate: func(c *WardenConfig) {},
		},
		{
			name:    "unknown watch mode",
			mutate:  func(c *WardenConfig) { c.Reconciler.Mode = "etcd" },
			wantErr: "reconciler.mode",
		},
		{
			name:    "filesystem mode needs manifest dir",
			mutate:  func(c *WardenConfig) { c.Reconciler.Mode = WatchModeFilesystem },
			wantErr: "manifestDir",
		},
		{
			name: "filesystem mode with manifest dir",
			mutate: func(c *WardenConfig) {
				c.Reconciler.Mode = WatchModeFilesystem
				c.Reconciler.ManifestDir = "/var/lib/warden/manifests"
			},
		},
		{
			name:    "zero workers",
			mutate:  func(c *WardenConfig) { c.Reconciler.Workers = 0 },
			wantErr: "workers",
		},
		{
			name: "retry max below initial",
			mutate: func(c *WardenConfig) {
				c.Reconciler.RetryInitial = Duration(10 * time.Second)
				c.Reconciler.RetryMax = Duration(time.Second)
			},
			wantErr: "retry bounds",
		},
		{
			name: "metrics enabled without addr",
			mutate: func(c *WardenConfig) {
				c.Metrics.Addr = ""
			},
			wantErr: "metrics.addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	writeConfigFile(t, tempDir, `
reconciler:
  timeout: 45s
`)

	cfg, err := LoadConfig(tempDir)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Reconciler.Timeout.Std())

	out, err := cfg.Reconciler.Timeout.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "45s", out)
}
