package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound          = errors.New("event not found")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
