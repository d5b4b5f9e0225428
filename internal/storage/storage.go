package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// ObjectInfo describes a stored artifact.
type ObjectInfo struct {
	Key        string
	SizeBytes  int64
	ModifiedAt time.Time
}

// Target is a backup artifact store. Keys are flat names; each
// implementation applies its configured prefix internally.
type Target interface {
	// Put streams an artifact to the store. An existing object under the
	// same key is overwritten.
	Put(ctx context.Context, key string, r io.Reader) error

	// Get opens an artifact for reading. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns every stored artifact whose key starts with prefix.
	// An empty prefix lists everything under the target's configured
	// location.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Delete removes an artifact. Deleting a missing key is an error.
	Delete(ctx context.Context, key string) error

	// Stat returns size and modification time without reading the body.
	Stat(ctx context.Context, key string) (ObjectInfo, error)

	// Kind names the backend ("local", "s3", "azure", "gcs").
	Kind() string
}

// Credentials carries secret material resolved by the caller. Empty fields
// fall back to each backend's ambient credential chain.
type Credentials struct {
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	AzureConnectionString string
	GCSCredentialsJSON    []byte
}

// NewTarget builds the Target selected by the policy's storage type.
func NewTarget(ctx context.Context, policy *wardenv1alpha1.BackupPolicy, creds Credentials) (Target, error) {
	if policy == nil {
		return nil, fmt.Errorf("backup policy is nil")
	}

	switch policy.StorageType {
	case "", "local":
		if policy.Local == nil {
			return nil, fmt.Errorf("storage type local requires a local block")
		}
		return NewLocalTarget(policy.Local.Path)
	case "s3":
		if policy.S3 == nil {
			return nil, fmt.Errorf("storage type s3 requires an s3 block")
		}
		return NewS3Target(ctx, policy.S3, creds)
	case "azure":
		if policy.Azure == nil {
			return nil, fmt.Errorf("storage type azure requires an azure block")
		}
		return NewAzureTarget(policy.Azure, creds)
	case "gcs":
		if policy.GCS == nil {
			return nil, fmt.Errorf("storage type gcs requires a gcs block")
		}
		return NewGCSTarget(ctx, policy.GCS, creds)
	default:
		return nil, fmt.Errorf("unknown storage type %q", policy.StorageType)
	}
}
