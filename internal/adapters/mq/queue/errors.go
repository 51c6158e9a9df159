package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed = errors.New("queue closed")
	ErrFull   = errors.New("queue full")
	// ErrSessionBusy is returned when a session already has the maximum
	// number of jobs waiting.
	ErrSessionBusy = errors.New("session has too many pending jobs")
)
