package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// S3Target stores artifacts in an S3-compatible bucket.
type S3Target struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Target builds a client from the ambient credential chain unless the
// credentials carry explicit keys. A custom endpoint switches the client to
// path-style addressing for MinIO compatibility.
func NewS3Target(ctx context.Context, cfg *wardenv1alpha1.S3StorageConfig, creds Credentials) (*S3Target, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if creds.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AWSAccessKeyID, creds.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Target{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (t *S3Target) Kind() string { return "s3" }

func (t *S3Target) objectKey(key string) string {
	return path.Join(t.prefix, key)
}

func (t *S3Target) Put(ctx context.Context, key string, r io.Reader) error {
	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.objectKey(key)),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("uploading s3://%s/%s: %w", t.bucket, t.objectKey(key), err)
	}
	return nil
}

func (t *S3Target) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.objectKey(key)),
	})
	if err != nil {
		return nil, fmt.Errorf("downloading s3://%s/%s: %w", t.bucket, t.objectKey(key), err)
	}
	return out.Body, nil
}

func (t *S3Target) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	fullPrefix := t.objectKey(prefix)
	var out []ObjectInfo

	paginator := s3.NewListObjectsV2Paginator(t.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(t.bucket),
		Prefix: aws.String(fullPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3://%s/%s: %w", t.bucket, fullPrefix, err)
		}
		for _, obj := range page.Contents {
			info := ObjectInfo{
				Key:       stripPrefix(aws.ToString(obj.Key), t.prefix),
				SizeBytes: aws.ToInt64(obj.Size),
			}
			if obj.LastModified != nil {
				info.ModifiedAt = *obj.LastModified
			}
			out = append(out, info)
		}
	}
	return out, nil
}

func (t *S3Target) Delete(ctx context.Context, key string) error {
	_, err := t.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.objectKey(key)),
	})
	if err != nil {
		return fmt.Errorf("deleting s3://%s/%s: %w", t.bucket, t.objectKey(key), err)
	}
	return nil
}

func (t *S3Target) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	out, err := t.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(t.objectKey(key)),
	})
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat s3://%s/%s: %w", t.bucket, t.objectKey(key), err)
	}
	info := ObjectInfo{Key: key, SizeBytes: aws.ToInt64(out.ContentLength)}
	if out.LastModified != nil {
		info.ModifiedAt = *out.LastModified
	}
	return info, nil
}

func stripPrefix(key, prefix string) string {
	if prefix == "" {
		return key
	}
	trimmed := path.Join(prefix) + "/"
	if len(key) > len(trimmed) && key[:len(trimmed)] == trimmed {
		return key[len(trimmed):]
	}
	return key
}
