package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/okian/finishline/internal/adapters/repository"
	"github.com/okian/finishline/internal/domain/leaderboard"
	"github.com/okian/finishline/pkg/metrics"
)

// Event returns the metadata of one event.
func (s *Service) Event(ctx context.Context, eventID string) (repository.Event, error) {
	if _, err := s.running(); err != nil {
		return repository.Event{}, err
	}
	e, err := s.store.Event(ctx, eventID)
	if err != nil {
		return repository.Event{}, fmt.Errorf("event %s: %w", eventID, err)
	}
	return e, nil
}

// Leaderboard builds one page of a category's leaderboard. The page size is
// defaulted and capped by configuration.
func (s *Service) Leaderboard(ctx context.Context, eventID, category string, q leaderboard.Query) (leaderboard.View, error) {
	start := time.Now()

	e, err := s.Event(ctx, eventID)
	if err != nil {
		return leaderboard.View{}, err
	}
	if !slices.Contains(e.Categories, category) {
		return leaderboard.View{}, fmt.Errorf("%s/%s: %w", eventID, category, leaderboard.ErrUnknownCategory)
	}

	rows, err := s.store.Results(ctx, eventID, category)
	if err != nil {
		metrics.RecordErrorByComponent("service", "results_query")
		return leaderboard.View{}, fmt.Errorf("results %s/%s: %w", eventID, category, err)
	}

	if q.PageSize < 1 {
		q.PageSize = s.defaultPageSize
	}
	q.PageSize = min(q.PageSize, s.maxPageSize)

	v := leaderboard.BuildView(rows, q)
	metrics.RecordLeaderboardView(float64(time.Since(start).Microseconds())/1000, len(v.Rows))
	return v, nil
}
