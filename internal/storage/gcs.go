package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// GCSTarget stores artifacts in a Google Cloud Storage bucket.
type GCSTarget struct {
	client *gcstorage.Client
	bucket string
	prefix string
}

// NewGCSTarget uses application default credentials unless the credentials
// carry a service account key.
func NewGCSTarget(ctx context.Context, cfg *wardenv1alpha1.GCSStorageConfig, creds Credentials) (*GCSTarget, error) {
	var opts []option.ClientOption
	if len(creds.GCSCredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(creds.GCSCredentialsJSON))
	}

	client, err := gcstorage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}

	return &GCSTarget{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (t *GCSTarget) Kind() string { return "gcs" }

func (t *GCSTarget) object(key string) *gcstorage.ObjectHandle {
	return t.client.Bucket(t.bucket).Object(path.Join(t.prefix, key))
}

func (t *GCSTarget) Put(ctx context.Context, key string, r io.Reader) error {
	w := t.object(key).NewWriter(ctx)
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("uploading gs://%s/%s: %w", t.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalizing gs://%s/%s: %w", t.bucket, key, err)
	}
	return nil
}

func (t *GCSTarget) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := t.object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("downloading gs://%s/%s: %w", t.bucket, key, err)
	}
	return r, nil
}

func (t *GCSTarget) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	fullPrefix := path.Join(t.prefix, prefix)
	var out []ObjectInfo

	it := t.client.Bucket(t.bucket).Objects(ctx, &gcstorage.Query{Prefix: fullPrefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing gs://%s/%s: %w", t.bucket, fullPrefix, err)
		}
		out = append(out, ObjectInfo{
			Key:        stripPrefix(attrs.Name, t.prefix),
			SizeBytes:  attrs.Size,
			ModifiedAt: attrs.Updated,
		})
	}
	return out, nil
}

func (t *GCSTarget) Delete(ctx context.Context, key string) error {
	if err := t.object(key).Delete(ctx); err != nil {
		return fmt.Errorf("deleting gs://%s/%s: %w", t.bucket, key, err)
	}
	return nil
}

func (t *GCSTarget) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	attrs, err := t.object(key).Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat gs://%s/%s: %w", t.bucket, key, err)
	}
	return ObjectInfo{Key: key, SizeBytes: attrs.Size, ModifiedAt: attrs.Updated}, nil
}
