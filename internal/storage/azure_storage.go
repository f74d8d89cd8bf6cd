package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

type azureStorage struct {
	client *azblob.Client
}

// NewAzureStorage authenticates with a shared key, which SAS signing needs.
// Buckets map to containers and objects to blob names.
func NewAzureStorage(accountName string, accountKey string) (ObjectStore, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("azure client: %w", err)
	}

	return &azureStorage{client: client}, nil
}

func (s *azureStorage) Scheme() string {
	return "az"
}

func (s *azureStorage) Fetch(ctx context.Context, container, blobName string) ([]byte, error) {
	downloadResponse, err := s.client.DownloadStream(ctx, container, blobName, nil)
	if err != nil {
		return nil, mapAzureError(err, container, blobName)
	}

	retryReader := downloadResponse.Body
	defer retryReader.Close()

	data, err := readAllLimited(retryReader)
	if err != nil {
		return nil, fmt.Errorf("read az://%s/%s: %w", container, blobName, err)
	}
	return data, nil
}

func (s *azureStorage) Upload(ctx context.Context, container, blobName string, data []byte, contentType string) error {
	_, err := s.client.UploadBuffer(ctx, container, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return mapAzureError(err, container, blobName)
	}
	return nil
}

func (s *azureStorage) Delete(ctx context.Context, container, blobName string) error {
	if _, err := s.client.DeleteBlob(ctx, container, blobName, nil); err != nil {
		return mapAzureError(err, container, blobName)
	}
	return nil
}

// SignedURL returns a read-only SAS URL.
func (s *azureStorage) SignedURL(ctx context.Context, container, blobName string, ttl time.Duration) (string, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(container).NewBlobClient(blobName)
	url, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(ttl), nil)
	if err != nil {
		return "", fmt.Errorf("sign az://%s/%s: %w", container, blobName, err)
	}
	return url, nil
}

func mapAzureError(err error, container, blobName string) error {
	switch {
	case bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound, bloberror.ResourceNotFound):
		return fmt.Errorf("az://%s/%s: %w", container, blobName, ErrObjectNotFound)
	case bloberror.HasCode(err, bloberror.AuthorizationFailure, bloberror.AuthorizationPermissionMismatch, bloberror.AuthenticationFailed):
		return fmt.Errorf("az://%s/%s: %w", container, blobName, ErrPermissionDenied)
	}
	return fmt.Errorf("az://%s/%s: %w", container, blobName, err)
}
