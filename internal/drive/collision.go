package drive

import (
	"context"
	"fmt"
)

// DefaultMaxAttempts bounds the collision probe loop. The sequence
// base, base(1), base(2), ... is expected to find a free key within a few
// iterations; hitting the bound means the store is misbehaving or the
// namespace is pathologically populated.
const DefaultMaxAttempts = 1000

// ExistsFunc probes whether a key is already present in the store.
type ExistsFunc func(ctx context.Context, key string) (bool, error)

// Resolver finds the first available key in the suffix sequence
// base, base(1), base(2), ... by sequential existence probing.
//
// This is a check-then-act race: two concurrent uploads of the same name can
// both resolve the same free suffix and overwrite each other. The store
// primitive offers no create-if-absent, so the race is accepted.
type Resolver struct {
	Exists      ExistsFunc
	MaxAttempts int
}

// Resolve returns the first non-existing key for (folder, base, ext). The
// folder must be normalized and the base sanitized by the caller. Probe
// failures abort immediately; exhausting MaxAttempts fails with
// ErrKeySpaceExhausted.
func (r Resolver) Resolve(ctx context.Context, folder, base, ext string) (string, error) {
	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = fmt.Sprintf("%s(%d)", base, attempt)
		}
		key := BuildKey(folder, candidate, ext)
		exists, err := r.Exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("probe key %q: %w", key, err)
		}
		if !exists {
			return key, nil
		}
	}
	return "", fmt.Errorf("no free key for %s/%s%s after %d attempts: %w", folder, base, ext, maxAttempts, ErrKeySpaceExhausted)
}
