// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/finishline/internal/domain/leaderboard"
	"github.com/okian/finishline/internal/domain/results"
	"github.com/okian/finishline/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, eventID, category string, q leaderboard.Query) (leaderboard.View, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetResults handles GET /events/{event}/results/{category} requests.
func (h *LeaderboardHandler) HandleGetResults(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_results"
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, WrapKind(op, ErrBadRequest, err))
		return
	}
	v, err := h.deps.Leaderboard(r.Context(), r.PathValue("event"), r.PathValue("category"), q)
	if err != nil {
		writeError(w, r, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// parseQuery reads search, filters, sort and paging from the query string.
// Page size 0 leaves the choice to the service.
func parseQuery(r *http.Request) (leaderboard.Query, error) {
	v := r.URL.Query()
	q := leaderboard.DefaultQuery()
	q.Search = v.Get("search")
	q.Highlight = strings.TrimSpace(v.Get("bib"))
	q.Filters = results.FilterState{
		Division: orAll(v.Get("division")),
		Gender:   orAll(v.Get("gender")),
	}
	if g := q.Filters.Gender; g != types.All {
		parsed := types.ParseGender(g)
		if parsed == "" {
			return q, errors.New("unknown gender")
		}
		q.Filters.Gender = string(parsed)
	}

	key, ok := leaderboard.ParseSortKey(v.Get("sort"))
	if !ok {
		return q, errors.New("unknown sort column")
	}
	q.Sort = leaderboard.Sort{Key: key}
	switch strings.ToLower(v.Get("order")) {
	case "", "asc":
	case "desc":
		q.Sort.Desc = true
	default:
		return q, errors.New("order must be asc or desc")
	}

	page, err := intParam(r, "page", 1)
	if err != nil {
		return q, err
	}
	size, err := intParam(r, "page_size", 0)
	if err != nil {
		return q, err
	}
	if page < 1 || size < 0 {
		return q, errors.New("page and page_size must be positive")
	}
	q.Page, q.PageSize = page, size
	return q, nil
}

func orAll(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, types.All) {
		return types.All
	}
	return s
}
