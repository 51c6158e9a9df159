package gallery

import "errors"

var (
	// ErrSessionNotFound is returned for unknown or evicted session IDs.
	ErrSessionNotFound = errors.New("gallery: session not found")
	// ErrSessionClosed is returned by any call on a closed session.
	ErrSessionClosed = errors.New("gallery: session closed")
	// ErrPhotoOutOfRange is returned for a photo index outside the stream.
	ErrPhotoOutOfRange = errors.New("gallery: photo index out of range")
	// ErrInvalidSize is returned for a reported photo size that is not positive.
	ErrInvalidSize = errors.New("gallery: photo size must be positive")
)
