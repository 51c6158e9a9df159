// Package results annotates and filters per-runner race results.
//
// All functions are pure: they never mutate their input and always return a
// new slice (or the input slice itself when the operation is a no-op).
package results

import (
	"strings"

	"github.com/okian/finishline/internal/domain/types"
)

// Row is one runner's finish record for one event category.
// Optional numeric fields are nil when the timing source did not report them.
type Row struct {
	Bib            string       `json:"bib"`
	Name           string       `json:"name,omitempty"`
	Rank           int          `json:"rank"`
	ChipTime       string       `json:"chip_time,omitempty"`
	AvgPace        string       `json:"avg_pace,omitempty"`
	Division       string       `json:"division,omitempty"`
	Gender         types.Gender `json:"gender,omitempty"`
	Age            *int         `json:"age,omitempty"`
	DivisionPlace  *int         `json:"division_place,omitempty"`
	AgePerformance *float64     `json:"age_performance,omitempty"`
}

// DivisionOrUnknown returns the division, substituting the "Unknown" sentinel.
func (r Row) DivisionOrUnknown() string {
	if strings.TrimSpace(r.Division) == "" {
		return types.UnknownDivision
	}
	return r.Division
}

// HasAgePerformance reports whether an age-graded percentage is available.
// Zero means "not available" and is never rendered as a real value.
func (r Row) HasAgePerformance() bool {
	return r.AgePerformance != nil && *r.AgePerformance > 0
}

// EnhancedRow is a Row plus annotations derived by Annotate.
// The flags are recomputed on every rebuild and never persisted.
type EnhancedRow struct {
	Row
	IsDivisionWinner bool `json:"is_division_winner"`
	IsOverallWinner  bool `json:"is_overall_winner"`
	IsUserRow        bool `json:"is_user_row,omitempty"`
}

// FilterState is the transient division/gender selection of a leaderboard.
// Either field may hold the "all" sentinel; the empty string behaves the same.
type FilterState struct {
	Division string `json:"division"`
	Gender   string `json:"gender"`
}

// DefaultFilters selects everything.
func DefaultFilters() FilterState {
	return FilterState{Division: types.All, Gender: types.All}
}
