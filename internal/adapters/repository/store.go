// Package repository reads race results, participant photos and event
// metadata from a SQL database.
package repository

import (
	"context"

	"github.com/okian/finishline/internal/domain/results"
	"github.com/okian/finishline/internal/domain/types"
)

// Event is the metadata of one race event.
type Event struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Date       string   `json:"date,omitempty"`
	Categories []string `json:"categories"`
}

// ResultSource returns every row of one category, ordered by rank.
type ResultSource interface {
	Results(ctx context.Context, eventID, category string) ([]results.Row, error)
}

// PhotoSource returns photo refs for a participant or a whole event.
type PhotoSource interface {
	Photos(ctx context.Context, eventID, bib string) ([]types.PhotoRef, error)
	EventPhotos(ctx context.Context, eventID string) ([]types.PhotoRef, error)
}

// EventSource returns event metadata.
// Returns ErrNotFound if the event is unknown.
type EventSource interface {
	Event(ctx context.Context, eventID string) (Event, error)
}

// Writer loads data into the store.
type Writer interface {
	PutEvent(ctx context.Context, e Event) error
	PutResults(ctx context.Context, eventID, category string, rows []results.Row) error
	PutPhotos(ctx context.Context, eventID, bib string, refs []types.PhotoRef) error
}

// Store is the full repository.
type Store interface {
	ResultSource
	PhotoSource
	EventSource
	Writer
	Close() error
}
