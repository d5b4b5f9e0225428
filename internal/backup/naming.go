package backup

import (
	"fmt"
	"strings"
	"time"
)

const (
	// artifact timestamps are UTC, second resolution
	timestampLayout = "20060102-150405"

	archiveSuffix   = ".tar.gz"
	encryptedSuffix = ".tar.gz.enc"
)

// ArtifactName builds the canonical artifact name for a deployment and
// creation time. Encrypted artifacts carry an extra suffix so the restore
// path knows to decrypt before unpacking.
func ArtifactName(deployment string, createdAt time.Time, encrypted bool) string {
	suffix := archiveSuffix
	if encrypted {
		suffix = encryptedSuffix
	}
	return fmt.Sprintf("%s-%s%s", deployment, createdAt.UTC().Format(timestampLayout), suffix)
}

// ParseArtifactName recovers the deployment name, creation time, and
// encryption flag from an artifact name. Objects that do not follow the
// naming scheme are rejected; the pruner skips them rather than deleting
// unknown data.
func ParseArtifactName(name string) (deployment string, createdAt time.Time, encrypted bool, err error) {
	base := name
	switch {
	case strings.HasSuffix(base, encryptedSuffix):
		encrypted = true
		base = strings.TrimSuffix(base, encryptedSuffix)
	case strings.HasSuffix(base, archiveSuffix):
		base = strings.TrimSuffix(base, archiveSuffix)
	default:
		return "", time.Time{}, false, fmt.Errorf("artifact %q has no recognized suffix", name)
	}

	// The timestamp is the last two dash-separated fields.
	idx := strings.LastIndex(base, "-")
	if idx <= 0 {
		return "", time.Time{}, false, fmt.Errorf("artifact %q has no timestamp", name)
	}
	idx = strings.LastIndex(base[:idx], "-")
	if idx <= 0 {
		return "", time.Time{}, false, fmt.Errorf("artifact %q has no timestamp", name)
	}

	ts, parseErr := time.Parse(timestampLayout, base[idx+1:])
	if parseErr != nil {
		return "", time.Time{}, false, fmt.Errorf("artifact %q has a malformed timestamp: %w", name, parseErr)
	}
	return base[:idx], ts, encrypted, nil
}
