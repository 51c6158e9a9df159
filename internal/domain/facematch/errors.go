package facematch

import "errors"

var (
	// ErrEmptySelfie is returned when a request carries no image.
	ErrEmptySelfie = errors.New("facematch: empty selfie")
	// ErrMatchFailed wraps any failure of the matching service.
	ErrMatchFailed = errors.New("facematch: match failed")
	// ErrBackpressure is returned when no more selfies can be queued.
	ErrBackpressure = errors.New("facematch: too many pending selfies")
)
