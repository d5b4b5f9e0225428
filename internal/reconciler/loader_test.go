package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

const platformManifest = `apiVersion: warden.dev/v1alpha1
kind: Platform
metadata:
  name: demo
  namespace: default
spec:
  adminUser: admin
  adminEmail: admin@localhost
  webReplicas: 2
  taskReplicas: 3
`

func TestManifestLoader_LoadPlatform(t *testing.T) {
	dir := t.TempDir()
	platformDir := filepath.Join(dir, "platforms")
	if err := os.MkdirAll(platformDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(platformDir, "demo.yaml"), []byte(platformManifest), 0o600); err != nil {
		t.Fatal(err)
	}

	l := &ManifestLoader{BasePath: dir}
	p, err := l.LoadPlatform(context.Background(), "default", "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Name != "demo" {
		t.Errorf("Name = %s, want demo", p.Name)
	}
	if p.Spec.WebReplicas != 2 || p.Spec.TaskReplicas != 3 {
		t.Errorf("replicas = %d/%d, want 2/3", p.Spec.WebReplicas, p.Spec.TaskReplicas)
	}
}

func TestManifestLoader_YmlExtensionFallback(t *testing.T) {
	dir := t.TempDir()
	platformDir := filepath.Join(dir, "platforms")
	if err := os.MkdirAll(platformDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(platformDir, "demo.yml"), []byte(platformManifest), 0o600); err != nil {
		t.Fatal(err)
	}

	l := &ManifestLoader{BasePath: dir}
	if _, err := l.LoadPlatform(context.Background(), "default", "demo"); err != nil {
		t.Fatalf("load .yml: %v", err)
	}
}

// A missing manifest must surface as a Kubernetes NotFound so reconcilers
// treat it exactly like a deleted cluster resource.
func TestManifestLoader_MissingFileIsNotFound(t *testing.T) {
	l := &ManifestLoader{BasePath: t.TempDir()}

	_, err := l.LoadPlatform(context.Background(), "default", "gone")
	if !apierrors.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}

	_, err = l.LoadBackup(context.Background(), "default", "gone")
	if !apierrors.IsNotFound(err) {
		t.Fatalf("expected NotFound for backup, got %v", err)
	}
}

func TestManifestLoader_MalformedManifest(t *testing.T) {
	dir := t.TempDir()
	platformDir := filepath.Join(dir, "platforms")
	if err := os.MkdirAll(platformDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(platformDir, "bad.yaml"), []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := &ManifestLoader{BasePath: dir}
	if _, err := l.LoadPlatform(context.Background(), "default", "bad"); err == nil {
		t.Fatal("expected a parse error")
	}
}
