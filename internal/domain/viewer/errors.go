package viewer

import "errors"

var (
	// ErrNoPhotos is returned when navigating an empty photo list.
	ErrNoPhotos = errors.New("viewer: no photos")
	// ErrNotOpen is returned when stepping or closing without an open photo.
	ErrNotOpen = errors.New("viewer: not open")
)
