// Package model contains domain models passed between layers.
package model

import "time"

// MatchJob is one selfie waiting to be matched against an event's photos.
type MatchJob struct {
	JobID     string    // request id used for idempotency
	SessionID string    // gallery session the results merge into
	EventID   string    // event whose photos are searched
	Bib       string    // participant the gallery belongs to
	Selfie    []byte    // raw image bytes
	Submitted time.Time // when the selfie was accepted
}

// MatchResult is the outcome of one job.
type MatchResult struct {
	Job     MatchJob
	Matched int // photos returned by the matcher
	Added   int // photos new to the gallery
	Err     error
}
