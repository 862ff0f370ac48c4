package store

import (
	"context"
	"io"
	"time"

	"studydrive/internal/drive"
)

// Observer receives the outcome of every store call. Implemented by the
// metrics package; defined here so the dependency points outward.
type Observer interface {
	ObserveStoreOp(op string, err error)
}

// WithObserver wraps next so every operation reports its outcome to obs.
func WithObserver(next ObjectStore, obs Observer) ObjectStore {
	if obs == nil {
		return next
	}
	return &observedStore{next: next, obs: obs}
}

type observedStore struct {
	next ObjectStore
	obs  Observer
}

func (s *observedStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	err := s.next.Put(ctx, key, body, size, contentType)
	s.obs.ObserveStoreOp("put", err)
	return err
}

func (s *observedStore) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.next.Exists(ctx, key)
	s.obs.ObserveStoreOp("head", err)
	return ok, err
}

func (s *observedStore) List(ctx context.Context, prefix string, limit int32, cursor string) (drive.ListPage, error) {
	page, err := s.next.List(ctx, prefix, limit, cursor)
	s.obs.ObserveStoreOp("list", err)
	return page, err
}

func (s *observedStore) Copy(ctx context.Context, src, dst string) error {
	err := s.next.Copy(ctx, src, dst)
	s.obs.ObserveStoreOp("copy", err)
	return err
}

func (s *observedStore) Delete(ctx context.Context, key string) error {
	err := s.next.Delete(ctx, key)
	s.obs.ObserveStoreOp("delete", err)
	return err
}

func (s *observedStore) SignGet(ctx context.Context, key string, expiry time.Duration, disposition string) (string, error) {
	url, err := s.next.SignGet(ctx, key, expiry, disposition)
	s.obs.ObserveStoreOp("sign", err)
	return url, err
}
