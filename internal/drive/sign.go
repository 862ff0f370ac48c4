package drive

import (
	"context"
	"fmt"
	"time"
)

// DefaultSignExpiry applies when neither the caller nor the issuer supplies
// an expiry.
const DefaultSignExpiry = time.Hour

// SignOptions parameterize one signed-URL issuance.
type SignOptions struct {
	Expiry        time.Duration
	ForceDownload bool
	// Filename overrides the attachment filename; when empty it is derived
	// from the key.
	Filename string
}

// Issuer produces time-limited read URLs. It performs no existence check
// before signing; a URL for a missing key simply resolves to not-found when
// fetched. Issued URLs cannot be revoked and survive later delete or rename
// of the underlying object for their full window.
type Issuer struct {
	Signer        Signer
	DefaultExpiry time.Duration
	MaxExpiry     time.Duration
}

// SignedURL issues one URL for key. A zero expiry falls back to the
// issuer's default, then to DefaultSignExpiry; expiries above MaxExpiry are
// clamped.
func (i Issuer) SignedURL(ctx context.Context, key string, opts SignOptions) (string, error) {
	expiry := opts.Expiry
	if expiry <= 0 {
		expiry = i.DefaultExpiry
	}
	if expiry <= 0 {
		expiry = DefaultSignExpiry
	}
	if i.MaxExpiry > 0 && expiry > i.MaxExpiry {
		expiry = i.MaxExpiry
	}

	disposition := ""
	if opts.ForceDownload {
		filename := opts.Filename
		if filename == "" {
			if _, name, err := ParseKey(key); err == nil {
				filename = name
			}
		}
		disposition = fmt.Sprintf("attachment; filename=%q", filename)
	}

	url, err := i.Signer.SignGet(ctx, key, expiry, disposition)
	if err != nil {
		return "", fmt.Errorf("sign %q: %w", key, err)
	}
	return url, nil
}
