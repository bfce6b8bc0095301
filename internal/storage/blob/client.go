// Package blob wraps the MinIO client behind a small adapter so services
// can persist session data without talking to a live object store in tests.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Internal adapter interface to enable mocking without a real MinIO server.
type minioAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// Wrapper to adapt *minio.Client to minioAPI.
type minioClientWrapper struct{ c *minio.Client }

func (w minioClientWrapper) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	return w.c.BucketExists(ctx, bucketName)
}
func (w minioClientWrapper) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return w.c.MakeBucket(ctx, bucketName, opts)
}
func (w minioClientWrapper) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	return w.c.PutObject(ctx, bucketName, objectName, reader, objectSize, opts)
}
func (w minioClientWrapper) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	obj, err := w.c.GetObject(ctx, bucketName, objectName, opts)
	if err != nil {
		return nil, err
	}
	return obj, nil
}
func (w minioClientWrapper) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return w.c.RemoveObject(ctx, bucketName, objectName, opts)
}
func (w minioClientWrapper) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	return w.c.ListObjects(ctx, bucketName, opts)
}

// ObjectMeta is a listing entry with its user metadata. Metadata keys are
// normalized to lowercase with the x-amz-meta- prefix stripped.
type ObjectMeta struct {
	Key      string
	Metadata map[string]string
}

type Client struct {
	api minioAPI
}

// NewClient dials the object store and returns a bucket-agnostic client.
func NewClient(endpoint, accessKey, secretKey string, useSSL bool) (*Client, error) {
	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &Client{api: minioClientWrapper{c: mc}}, nil
}

// NewClientWithAPI allows injecting a mockable API (used in tests).
func NewClientWithAPI(api minioAPI) *Client {
	return &Client{api: api}
}

// EnsureBucket creates the bucket if it doesn't exist.
func (c *Client) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := c.api.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := c.api.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// Upload overwrites the object at key with data and its user metadata.
func (c *Client) Upload(ctx context.Context, bucket, key string, data []byte, metadata map[string]string) error {
	opts := minio.PutObjectOptions{
		ContentType:  "application/json",
		UserMetadata: metadata,
	}
	_, err := c.api.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), opts)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// Download reads the full object at key.
func (c *Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Delete removes the object at key.
func (c *Client) Delete(ctx context.Context, bucket, key string) error {
	if err := c.api.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// List returns objects under prefix together with their user metadata,
// without downloading object bodies.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]ObjectMeta, error) {
	objects := make([]ObjectMeta, 0)

	for info := range c.api.ListObjects(ctx, bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		WithMetadata: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", info.Err)
		}
		objects = append(objects, ObjectMeta{
			Key:      info.Key,
			Metadata: normalizeMetadata(info.UserMetadata),
		})
	}

	return objects, nil
}

// normalizeMetadata lowercases keys and strips the x-amz-meta- prefix the
// listing API reports them with.
func normalizeMetadata(raw minio.StringMap) map[string]string {
	meta := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.ToLower(k)
		key = strings.TrimPrefix(key, "x-amz-meta-")
		meta[key] = v
	}
	return meta
}
