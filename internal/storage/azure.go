package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	wardenv1alpha1 "warden/pkg/apis/warden/v1alpha1"
)

// AzureTarget stores artifacts as blobs in an Azure storage container.
type AzureTarget struct {
	client    *azblob.Client
	container string
	prefix    string
}

// NewAzureTarget requires a connection string from the resolved credentials.
func NewAzureTarget(cfg *wardenv1alpha1.AzureStorageConfig, creds Credentials) (*AzureTarget, error) {
	if creds.AzureConnectionString == "" {
		return nil, fmt.Errorf("azure storage requires a connection string secret")
	}

	client, err := azblob.NewClientFromConnectionString(creds.AzureConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("creating azure blob client: %w", err)
	}

	return &AzureTarget{client: client, container: cfg.Container, prefix: cfg.Prefix}, nil
}

func (t *AzureTarget) Kind() string { return "azure" }

func (t *AzureTarget) blobName(key string) string {
	return path.Join(t.prefix, key)
}

func (t *AzureTarget) Put(ctx context.Context, key string, r io.Reader) error {
	_, err := t.client.UploadStream(ctx, t.container, t.blobName(key), r, nil)
	if err != nil {
		return fmt.Errorf("uploading blob %s/%s: %w", t.container, t.blobName(key), err)
	}
	return nil
}

func (t *AzureTarget) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := t.client.DownloadStream(ctx, t.container, t.blobName(key), nil)
	if err != nil {
		return nil, fmt.Errorf("downloading blob %s/%s: %w", t.container, t.blobName(key), err)
	}
	return resp.Body, nil
}

func (t *AzureTarget) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	fullPrefix := t.blobName(prefix)
	var out []ObjectInfo

	pager := t.client.NewListBlobsFlatPager(t.container, &azblob.ListBlobsFlatOptions{
		Prefix: &fullPrefix,
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing blobs %s/%s: %w", t.container, fullPrefix, err)
		}
		for _, item := range page.Segment.BlobItems {
			info := ObjectInfo{Key: stripPrefix(*item.Name, t.prefix)}
			if item.Properties != nil {
				if item.Properties.ContentLength != nil {
					info.SizeBytes = *item.Properties.ContentLength
				}
				if item.Properties.LastModified != nil {
					info.ModifiedAt = *item.Properties.LastModified
				}
			}
			out = append(out, info)
		}
	}
	return out, nil
}

func (t *AzureTarget) Delete(ctx context.Context, key string) error {
	_, err := t.client.DeleteBlob(ctx, t.container, t.blobName(key), nil)
	if err != nil {
		return fmt.Errorf("deleting blob %s/%s: %w", t.container, t.blobName(key), err)
	}
	return nil
}

func (t *AzureTarget) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	blobClient := t.client.ServiceClient().NewContainerClient(t.container).NewBlobClient(t.blobName(key))
	props, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat blob %s/%s: %w", t.container, t.blobName(key), err)
	}
	info := ObjectInfo{Key: key}
	if props.ContentLength != nil {
		info.SizeBytes = *props.ContentLength
	}
	if props.LastModified != nil {
		info.ModifiedAt = *props.LastModified
	}
	return info, nil
}
