package types

import "errors"

// ErrUnavailable marks errors from components that are not running.
var ErrUnavailable = errors.New("unavailable")
