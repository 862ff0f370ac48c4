package store

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"studydrive/internal/drive"
)

// MemoryStore keeps objects in process memory. It backs the "memory"
// provider for local development and the package tests; it enforces the
// same contract as the real clients, including lexicographic listing order
// and opaque continuation cursors.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string]memoryObject
	now     func() time.Time
}

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, key string, body io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("put object %q: %w: %w", key, drive.ErrStorageUnavailable, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, modified: m.now()}
	return nil
}

func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *MemoryStore) List(_ context.Context, prefix string, limit int32, cursor string) (drive.ListPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) && key > cursor {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	page := drive.ListPage{Objects: make([]drive.ObjectSummary, 0, limit)}
	for i, key := range keys {
		if int32(i) == limit {
			page.NextCursor = keys[i-1]
			break
		}
		obj := m.objects[key]
		page.Objects = append(page.Objects, drive.ObjectSummary{
			Key:          key,
			Size:         int64(len(obj.data)),
			LastModified: obj.modified,
		})
	}
	return page, nil
}

func (m *MemoryStore) Copy(_ context.Context, src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[src]
	if !ok {
		return fmt.Errorf("copy object %q: %w", src, drive.ErrNoSuchKey)
	}
	duplicate := memoryObject{
		data:        append([]byte(nil), obj.data...),
		contentType: obj.contentType,
		modified:    m.now(),
	}
	m.objects[dst] = duplicate
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// SignGet fabricates a URL that carries the signing parameters; nothing
// serves it, which is enough for development and tests.
func (m *MemoryStore) SignGet(_ context.Context, key string, expiry time.Duration, disposition string) (string, error) {
	params := url.Values{}
	params.Set("X-Expires", fmt.Sprintf("%d", int(expiry.Seconds())))
	if disposition != "" {
		params.Set("response-content-disposition", disposition)
	}
	return "https://memory.invalid/" + key + "?" + params.Encode(), nil
}

// Object returns the stored bytes and content type for key; test helper.
func (m *MemoryStore) Object(key string) (data []byte, contentType string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, found := m.objects[key]
	if !found {
		return nil, "", false
	}
	return append([]byte(nil), obj.data...), obj.contentType, true
}

// Len reports the number of stored objects; test helper.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
