package cmd

import (
	"testing"
)

func TestSetVersion(t *testing.T) {
	testVersion := "1.2.3-test"
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	SetVersion(testVersion)

	if rootCmd.Version != testVersion {
		t.Errorf("Expected version to be %s, got %s", testVersion, rootCmd.Version)
	}
	if GetVersion() != testVersion {
		t.Errorf("GetVersion() = %s, want %s", GetVersion(), testVersion)
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "warden" {
		t.Errorf("Expected Use to be 'warden', got %s", rootCmd.Use)
	}
	if rootCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if !rootCmd.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}
}

func TestRegisteredSubcommands(t *testing.T) {
	want := map[string]bool{
		"serve":  false,
		"status": false,
		"backup": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("Expected subcommand %q to be registered", name)
		}
	}
}

func TestStatusHelpers(t *testing.T) {
	if got := truncate("short", 60); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	long := truncate("aaaaaaaaaaaaaaaaaaaa", 10)
	if len(long) != 10 {
		t.Errorf("truncate length = %d, want 10", len(long))
	}

	cases := map[int64]string{
		0:       "-",
		512:     "512B",
		2 << 10: "2.0Ki",
		3 << 20: "3.0Mi",
		5 << 30: "5.0Gi",
	}
	for in, want := range cases {
		if got := formatSize(in); got != want {
			t.Errorf("formatSize(%d) = %q, want %q", in, got, want)
		}
	}
}
