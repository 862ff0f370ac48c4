// Package store provides the object-store clients the drive core runs
// against: an AWS SDK v2 based client for S3 and S3-compatible endpoints, a
// MinIO client for self-hosted deployments, and an in-memory store for local
// development and tests. All implementations map backend failures onto the
// drive sentinels so callers never match on provider-specific error types.
package store

import (
	"context"
	"io"
	"time"

	"studydrive/internal/drive"
)

// ObjectStore is the full set of store operations the backend consumes.
// It satisfies the drive package's Lister, Signer and RelocationStore
// interfaces.
type ObjectStore interface {
	// Put stores body under key. Size may be -1 when unknown.
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Exists probes key without fetching the object.
	Exists(ctx context.Context, key string) (bool, error)
	// List returns one page of keys under prefix, resuming from cursor.
	List(ctx context.Context, prefix string, limit int32, cursor string) (drive.ListPage, error)
	// Copy duplicates src under dst, overwriting any existing object.
	Copy(ctx context.Context, src, dst string) error
	// Delete removes key. Deleting an absent key is not an error at this
	// layer; the API layer probes existence first where absence matters.
	Delete(ctx context.Context, key string) error
	// SignGet issues a time-limited read URL for key. A non-empty
	// disposition overrides the response Content-Disposition.
	SignGet(ctx context.Context, key string, expiry time.Duration, disposition string) (string, error)
}
