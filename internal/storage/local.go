package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalTarget stores artifacts as files under a base directory. Used for
// volume-backed backups and in tests.
type LocalTarget struct {
	baseDir string
}

// NewLocalTarget creates the base directory if needed.
func NewLocalTarget(baseDir string) (*LocalTarget, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("local storage path is empty")
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating local storage dir %s: %w", baseDir, err)
	}
	return &LocalTarget{baseDir: baseDir}, nil
}

func (t *LocalTarget) Kind() string { return "local" }

// path rejects keys that would escape the base directory.
func (t *LocalTarget) path(key string) (string, error) {
	if key == "" || strings.Contains(key, "..") || filepath.IsAbs(key) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}
	return filepath.Join(t.baseDir, key), nil
}

func (t *LocalTarget) Put(_ context.Context, key string, r io.Reader) error {
	p, err := t.path(key)
	if err != nil {
		return err
	}

	// Write to a temp file first so a partial write never looks like a
	// finished artifact.
	tmp, err := os.CreateTemp(t.baseDir, ".upload-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("writing artifact %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

func (t *LocalTarget) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := t.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("opening artifact %s: %w", key, err)
	}
	return f, nil
}

func (t *LocalTarget) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(t.baseDir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", t.baseDir, err)
	}

	var out []ObjectInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".upload-") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		out = append(out, ObjectInfo{
			Key:        e.Name(),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return out, nil
}

func (t *LocalTarget) Delete(_ context.Context, key string) error {
	p, err := t.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("deleting artifact %s: %w", key, err)
	}
	return nil
}

func (t *LocalTarget) Stat(_ context.Context, key string) (ObjectInfo, error) {
	p, err := t.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat artifact %s: %w", key, err)
	}
	return ObjectInfo{Key: key, SizeBytes: info.Size(), ModifiedAt: info.ModTime()}, nil
}
