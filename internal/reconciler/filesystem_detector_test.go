package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForEvent(t *testing.T, changes <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case ev := <-changes:
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a change event")
		return ChangeEvent{}
	}
}

func startedDetector(t *testing.T, types ...ResourceType) (*FilesystemDetector, string, chan ChangeEvent) {
	t.Helper()
	dir := t.TempDir()
	d := NewFilesystemDetector(dir, 20*time.Millisecond)
	for _, rt := range types {
		if err := d.AddResourceType(rt); err != nil {
			t.Fatalf("add resource type: %v", err)
		}
	}

	changes := make(chan ChangeEvent, 16)
	if err := d.Start(context.Background(), changes); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = d.Stop() })
	return d, dir, changes
}

func TestFilesystemDetector_EmitsCreateEvent(t *testing.T) {
	_, dir, changes := startedDetector(t, ResourceTypePlatform)

	manifest := filepath.Join(dir, "platforms", "demo.yaml")
	if err := os.WriteFile(manifest, []byte("kind: Platform\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	ev := waitForEvent(t, changes)
	if ev.Type != ResourceTypePlatform {
		t.Errorf("Type = %s, want Platform", ev.Type)
	}
	if ev.Name != "demo" {
		t.Errorf("Name = %s, want demo", ev.Name)
	}
	if ev.Operation != OperationCreate {
		t.Errorf("Operation = %s, want Create", ev.Operation)
	}
	if ev.Source != SourceFilesystem {
		t.Errorf("Source = %s, want filesystem", ev.Source)
	}
}

func TestFilesystemDetector_DebouncesRapidWrites(t *testing.T) {
	_, dir, changes := startedDetector(t, ResourceTypePlatform)

	manifest := filepath.Join(dir, "platforms", "demo.yaml")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(manifest, []byte("kind: Platform\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	waitForEvent(t, changes)

	// The remaining writes collapsed into the first event.
	select {
	case ev := <-changes:
		t.Errorf("unexpected second event: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFilesystemDetector_DeleteAfterCreateCollapsesToDelete(t *testing.T) {
	if got := mergeOperations(OperationCreate, OperationDelete); got != OperationDelete {
		t.Errorf("create+delete = %s, want Delete", got)
	}
	if got := mergeOperations(OperationCreate, OperationUpdate); got != OperationCreate {
		t.Errorf("create+update = %s, want Create", got)
	}
	if got := mergeOperations(OperationUpdate, OperationDelete); got != OperationDelete {
		t.Errorf("update+delete = %s, want Delete", got)
	}
	if got := mergeOperations(OperationUpdate, OperationUpdate); got != OperationUpdate {
		t.Errorf("update+update = %s, want Update", got)
	}
}

func TestFilesystemDetector_IgnoresNonYAMLFiles(t *testing.T) {
	_, dir, changes := startedDetector(t, ResourceTypePlatform)

	if err := os.WriteFile(filepath.Join(dir, "platforms", "notes.txt"), []byte("scratch"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-changes:
		t.Errorf("unexpected event for non-YAML file: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestFilesystemDetector_IgnoresUnregisteredTypes(t *testing.T) {
	d, dir, changes := startedDetector(t, ResourceTypePlatform)

	// The backups directory is not registered, so nothing watches it.
	backupDir := filepath.Join(dir, "platformbackups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(backupDir, "nightly.yaml"), []byte("kind: PlatformBackup\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-changes:
		t.Errorf("unexpected event for unregistered type: %+v", ev)
	case <-time.After(200 * time.Millisecond):
	}

	_ = d
}

func TestParseManifestPath(t *testing.T) {
	d := NewFilesystemDetector("/manifests", 0)

	cases := []struct {
		path     string
		wantType ResourceType
		wantName string
	}{
		{"/manifests/platforms/demo.yaml", ResourceTypePlatform, "demo"},
		{"/manifests/platformbackups/nightly.yml", ResourceTypePlatformBackup, "nightly"},
		{"/manifests/platformrestores/revert.yaml", ResourceTypePlatformRestore, "revert"},
		{"/manifests/unknown/x.yaml", "", ""},
		{"/manifests/top-level.yaml", "", ""},
	}
	for _, tc := range cases {
		gotType, gotName := d.parseManifestPath(tc.path)
		if gotType != tc.wantType || gotName != tc.wantName {
			t.Errorf("parseManifestPath(%s) = (%s, %s), want (%s, %s)",
				tc.path, gotType, gotName, tc.wantType, tc.wantName)
		}
	}
}
