package drive

import (
	"context"
	"time"
)

// ObjectSummary is the store-reported view of one stored object, before any
// folder/name annotation.
type ObjectSummary struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// ListPage is one page of a prefix listing together with the opaque cursor
// for the next page. An empty NextCursor means the listing is exhausted.
type ListPage struct {
	Objects    []ObjectSummary
	NextCursor string
}

// Lister is the paged-listing primitive the paginator consumes.
type Lister interface {
	List(ctx context.Context, prefix string, limit int32, cursor string) (ListPage, error)
}

// Signer issues a time-limited read URL for one key. A non-empty disposition
// overrides the response Content-Disposition for forced downloads.
type Signer interface {
	SignGet(ctx context.Context, key string, expiry time.Duration, disposition string) (string, error)
}

// RelocationStore is the subset of store operations the relocation protocol
// needs.
type RelocationStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	Copy(ctx context.Context, src, dst string) error
	Delete(ctx context.Context, key string) error
}
