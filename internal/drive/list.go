package drive

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultPageLimit applies when a caller requests no limit.
	DefaultPageLimit = 50
	// MaxPageLimit is the hard ceiling on one page, regardless of the
	// caller's request.
	MaxPageLimit = 200
)

// FileInfo is one listed object annotated with its derived folder and
// display name. URL is set only when the caller asked for eager signing.
type FileInfo struct {
	Key          string    `json:"key"`
	Folder       string    `json:"folder"`
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url,omitempty"`
}

// PageRequest describes one listing page. Folder is raw caller input and is
// normalized before use; an empty Folder spans all folders. Cursor is the
// opaque continuation token from a previous page.
type PageRequest struct {
	Folder   string
	Limit    int
	Cursor   string
	WithURLs bool
	Expiry   time.Duration
}

// PageResult is one page of annotated files. NextCursor is empty when the
// store reports no further pages.
type PageResult struct {
	Files      []FileInfo
	NextCursor string
}

// Paginator turns the store's flat paged listing into the folder/name view.
type Paginator struct {
	Store        Lister
	Signer       Signer
	DefaultLimit int
	MaxLimit     int
}

// Page fetches one page. The limit is clamped to [1, MaxLimit]; folder
// placeholder entries (zero-identity keys some stores return for the prefix
// itself) are excluded. Order is whatever the store returns, typically
// lexicographic by key. Store failures propagate without retry.
func (p *Paginator) Page(ctx context.Context, req PageRequest) (PageResult, error) {
	limit := p.clampLimit(req.Limit)
	prefix := pagePrefix(req.Folder)

	page, err := p.Store.List(ctx, prefix, int32(limit), req.Cursor)
	if err != nil {
		return PageResult{}, fmt.Errorf("list prefix %q: %w", prefix, err)
	}

	result := PageResult{
		Files:      make([]FileInfo, 0, len(page.Objects)),
		NextCursor: page.NextCursor,
	}
	for _, obj := range page.Objects {
		if obj.Key == prefix || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		folder, name, parseErr := ParseKey(obj.Key)
		if parseErr != nil {
			// Keys outside the uploads namespace carry no file identity.
			continue
		}
		info := FileInfo{
			Key:          obj.Key,
			Folder:       folder,
			Name:         name,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		}
		if req.WithURLs && p.Signer != nil {
			url, signErr := p.Signer.SignGet(ctx, obj.Key, req.Expiry, "")
			if signErr != nil {
				return PageResult{}, fmt.Errorf("sign %q: %w", obj.Key, signErr)
			}
			info.URL = url
		}
		result.Files = append(result.Files, info)
	}
	return result, nil
}

// pagePrefix maps raw folder input onto the listing prefix. An empty or
// whitespace-only folder spans every folder, which is distinct from the
// explicit "root" folder.
func pagePrefix(folder string) string {
	if strings.TrimSpace(folder) == "" {
		return KeyPrefix
	}
	return KeyPrefix + NormalizeFolder(folder) + "/"
}

func (p *Paginator) clampLimit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = p.DefaultLimit
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	ceiling := p.MaxLimit
	if ceiling <= 0 {
		ceiling = MaxPageLimit
	}
	if limit > ceiling {
		limit = ceiling
	}
	return limit
}
