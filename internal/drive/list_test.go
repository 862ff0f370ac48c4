package drive

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type fakeLister struct {
	gotPrefix string
	gotLimit  int32
	gotCursor string
	page      ListPage
	err       error
}

func (f *fakeLister) List(_ context.Context, prefix string, limit int32, cursor string) (ListPage, error) {
	f.gotPrefix = prefix
	f.gotLimit = limit
	f.gotCursor = cursor
	return f.page, f.err
}

type fakeSigner struct {
	calls int
	err   error
}

func (f *fakeSigner) SignGet(_ context.Context, key string, expiry time.Duration, disposition string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://signed.example/%s?expires=%d", key, int(expiry.Seconds())), nil
}

func TestPageBuildsPrefixFromFolder(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name       string
		folder     string
		wantPrefix string
	}{
		{name: "no folder spans all", folder: "", wantPrefix: "uploads/"},
		{name: "folder normalized", folder: "OS 101", wantPrefix: "uploads/os_101/"},
		{name: "whitespace only spans all", folder: "  ", wantPrefix: "uploads/"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			lister := &fakeLister{}
			p := &Paginator{Store: lister}
			if _, err := p.Page(context.Background(), PageRequest{Folder: tc.folder}); err != nil {
				t.Fatalf("Page error: %v", err)
			}
			if lister.gotPrefix != tc.wantPrefix {
				t.Fatalf("prefix = %q, want %q", lister.gotPrefix, tc.wantPrefix)
			}
		})
	}
}

func TestPageClampsLimit(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name      string
		requested int
		want      int32
	}{
		{name: "zero uses default", requested: 0, want: DefaultPageLimit},
		{name: "negative uses default", requested: -3, want: DefaultPageLimit},
		{name: "in range passes through", requested: 10, want: 10},
		{name: "above ceiling clamps", requested: 10_000, want: MaxPageLimit},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			lister := &fakeLister{}
			p := &Paginator{Store: lister}
			if _, err := p.Page(context.Background(), PageRequest{Limit: tc.requested}); err != nil {
				t.Fatalf("Page error: %v", err)
			}
			if lister.gotLimit != tc.want {
				t.Fatalf("limit = %d, want %d", lister.gotLimit, tc.want)
			}
		})
	}
}

func TestPageAnnotatesAndFiltersPlaceholder(t *testing.T) {
	t.Parallel()
	modified := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	lister := &fakeLister{page: ListPage{
		Objects: []ObjectSummary{
			{Key: "uploads/os_101/", Size: 0},
			{Key: "uploads/os_101/my_notes.pdf", Size: 42, LastModified: modified},
			{Key: "uploads/orphan.txt", Size: 7, LastModified: modified},
		},
		NextCursor: "cursor-2",
	}}
	p := &Paginator{Store: lister}

	res, err := p.Page(context.Background(), PageRequest{Folder: "os_101", Cursor: "cursor-1"})
	if err != nil {
		t.Fatalf("Page error: %v", err)
	}
	if lister.gotCursor != "cursor-1" {
		t.Fatalf("cursor forwarded = %q, want %q", lister.gotCursor, "cursor-1")
	}
	if res.NextCursor != "cursor-2" {
		t.Fatalf("NextCursor = %q, want %q", res.NextCursor, "cursor-2")
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected placeholder filtered, got %d files: %+v", len(res.Files), res.Files)
	}
	first := res.Files[0]
	if first.Folder != "os_101" || first.Name != "my_notes.pdf" || first.Size != 42 || !first.LastModified.Equal(modified) {
		t.Fatalf("unexpected annotation: %+v", first)
	}
	if second := res.Files[1]; second.Folder != "root" || second.Name != "orphan.txt" {
		t.Fatalf("expected root fallback for unscoped key, got %+v", second)
	}
}

func TestPageEagerURLs(t *testing.T) {
	t.Parallel()
	lister := &fakeLister{page: ListPage{Objects: []ObjectSummary{
		{Key: "uploads/os_101/a.pdf"},
		{Key: "uploads/os_101/b.pdf"},
	}}}
	signer := &fakeSigner{}
	p := &Paginator{Store: lister, Signer: signer}

	res, err := p.Page(context.Background(), PageRequest{WithURLs: true, Expiry: time.Hour})
	if err != nil {
		t.Fatalf("Page error: %v", err)
	}
	if signer.calls != 2 {
		t.Fatalf("expected 2 signing calls, got %d", signer.calls)
	}
	for _, f := range res.Files {
		if f.URL == "" {
			t.Fatalf("expected eager URL on %+v", f)
		}
	}

	// Deferred mode performs no signing.
	signer.calls = 0
	res, err = p.Page(context.Background(), PageRequest{})
	if err != nil {
		t.Fatalf("Page error: %v", err)
	}
	if signer.calls != 0 {
		t.Fatalf("expected no signing calls, got %d", signer.calls)
	}
	for _, f := range res.Files {
		if f.URL != "" {
			t.Fatalf("expected bare metadata, got URL %q", f.URL)
		}
	}
}

func TestPagePropagatesStoreError(t *testing.T) {
	t.Parallel()
	storeErr := fmt.Errorf("list objects: %w", ErrStorageUnavailable)
	p := &Paginator{Store: &fakeLister{err: storeErr}}
	if _, err := p.Page(context.Background(), PageRequest{}); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestPageSignErrorAborts(t *testing.T) {
	t.Parallel()
	signErr := errors.New("presign failed")
	p := &Paginator{
		Store:  &fakeLister{page: ListPage{Objects: []ObjectSummary{{Key: "uploads/root/a.txt"}}}},
		Signer: &fakeSigner{err: signErr},
	}
	if _, err := p.Page(context.Background(), PageRequest{WithURLs: true}); !errors.Is(err, signErr) {
		t.Fatalf("expected signing error, got %v", err)
	}
}
