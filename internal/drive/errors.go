package drive

import "errors"

var (
	ErrInvalidKey         = errors.New("invalid object key")
	ErrNoSuchKey          = errors.New("no such key")
	ErrDestinationExists  = errors.New("destination key already exists")
	ErrKeySpaceExhausted  = errors.New("collision suffix space exhausted")
	ErrStorageUnavailable = errors.New("object storage unavailable")
	ErrNotConfigured      = errors.New("object storage not configured")
)
