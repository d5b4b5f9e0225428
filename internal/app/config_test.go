package app

import (
	"testing"
)

func TestNewConfig(t *testing.T) {
	cfg := NewConfig(true, "/etc/warden", "production")

	if !cfg.Debug {
		t.Error("Expected Debug to be true")
	}
	if cfg.ConfigPath != "/etc/warden" {
		t.Errorf("ConfigPath = %q, want /etc/warden", cfg.ConfigPath)
	}
	if cfg.Namespace != "production" {
		t.Errorf("Namespace = %q, want production", cfg.Namespace)
	}
	if cfg.WardenConfig != nil {
		t.Error("WardenConfig should be nil before bootstrap")
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig(false, "", "")

	if cfg.Debug {
		t.Error("Expected Debug to be false")
	}
	if cfg.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty", cfg.ConfigPath)
	}
}
