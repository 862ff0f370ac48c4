package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"studydrive/internal/drive"
)

// MinioConfig configures the MinIO store client. Endpoint accepts either a
// bare host:port or an http(s) URL; https is assumed when no scheme is
// given.
type MinioConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// MinioStore talks to a MinIO (or other S3-compatible) deployment through
// minio-go.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore builds the minio client for cfg.
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio store: bucket is required: %w", drive.ErrNotConfigured)
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio store: endpoint is required: %w", drive.ErrNotConfigured)
	}

	endpoint := cfg.Endpoint
	secure := true
	if strings.Contains(endpoint, "://") {
		parsed, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("minio store: parse endpoint %q: %w", cfg.Endpoint, err)
		}
		secure = parsed.Scheme != "http"
		endpoint = parsed.Host
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio store: new client: %w", err)
	}
	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

func (m *MinioStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := m.client.PutObject(ctx, m.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return wrapMinioError("put object", key, err)
	}
	return nil
}

func (m *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isMinioNotFound(err) {
		return false, nil
	}
	return false, wrapMinioError("stat object", key, err)
}

// List adapts minio-go's channel-based listing to the paged contract. The
// continuation cursor is the last key of the previous page, replayed through
// StartAfter.
func (m *MinioStore) List(ctx context.Context, prefix string, limit int32, cursor string) (drive.ListPage, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := make([]drive.ObjectSummary, 0, limit)
	truncated := false
	for obj := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:     prefix,
		StartAfter: cursor,
		Recursive:  true,
	}) {
		if obj.Err != nil {
			return drive.ListPage{}, wrapMinioError("list objects", prefix, obj.Err)
		}
		if int32(len(objects)) == limit {
			truncated = true
			break
		}
		objects = append(objects, drive.ObjectSummary{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         obj.ETag,
		})
	}

	page := drive.ListPage{Objects: objects}
	if truncated && len(objects) > 0 {
		page.NextCursor = objects[len(objects)-1].Key
	}
	return page, nil
}

func (m *MinioStore) Copy(ctx context.Context, src, dst string) error {
	_, err := m.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: m.bucket, Object: dst},
		minio.CopySrcOptions{Bucket: m.bucket, Object: src},
	)
	if err != nil {
		return wrapMinioError("copy object", src, err)
	}
	return nil
}

func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return wrapMinioError("delete object", key, err)
	}
	return nil
}

func (m *MinioStore) SignGet(ctx context.Context, key string, expiry time.Duration, disposition string) (string, error) {
	params := make(url.Values)
	if disposition != "" {
		params.Set("response-content-disposition", disposition)
	}
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, params)
	if err != nil {
		return "", wrapMinioError("presign get", key, err)
	}
	return u.String(), nil
}

func wrapMinioError(op, key string, err error) error {
	if isMinioNotFound(err) {
		return fmt.Errorf("%s %q: %w", op, key, drive.ErrNoSuchKey)
	}
	return fmt.Errorf("%s %q: %w: %w", op, key, drive.ErrStorageUnavailable, err)
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == 404
}
