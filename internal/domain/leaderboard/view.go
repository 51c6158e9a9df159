// Package leaderboard turns a category's result rows into one page of a
// filterable, sortable leaderboard with derived awards and a pinned row.
package leaderboard

import (
	"github.com/okian/finishline/internal/domain/results"
)

// DefaultPageSize is used when a query does not set one.
const DefaultPageSize = 10

// Query describes the requested view. Page is 1-based.
type Query struct {
	Search    string              `json:"search"`
	Filters   results.FilterState `json:"filters"`
	Highlight string              `json:"highlight"`
	Sort      Sort                `json:"sort"`
	Page      int                 `json:"page"`
	PageSize  int                 `json:"page_size"`
}

// DefaultQuery returns the first page, rank ascending, no filtering.
func DefaultQuery() Query {
	return Query{
		Filters:  results.DefaultFilters(),
		Sort:     DefaultSort(),
		Page:     1,
		PageSize: DefaultPageSize,
	}
}

func (q Query) normalized() Query {
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if _, ok := sortKeys[q.Sort.Key]; !ok {
		q.Sort = DefaultSort()
	}
	return q
}

// Row is one rendered leaderboard row.
type Row struct {
	results.EnhancedRow
	Classification Classification `json:"classification"`
	Cells          Cells          `json:"cells"`
}

// View is one page of the leaderboard.
type View struct {
	Rows       []Row    `json:"rows"`
	TotalCount int      `json:"total_count"`
	Divisions  []string `json:"divisions"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	// Pinned is the highlighted participant anywhere in the filtered set.
	Pinned *Row `json:"pinned,omitempty"`
}

// BuildView runs search, division/gender filters, annotation, sort and
// pagination, always in that order. Winner flags are computed before the
// requested sort, so they stay tied to rank order.
//
// all should be rank-ascending; if it is not, a rank-sorted copy is used.
func BuildView(all []results.Row, q Query) View {
	q = q.normalized()

	source := all
	if !results.RankOrdered(source) {
		source = byRank(source)
	}

	filtered := results.FilterBySearch(source, q.Search)
	filtered = results.ApplyFilters(filtered, q.Filters)
	annotated := results.Annotate(filtered, q.Highlight)

	v := View{
		Rows:       []Row{},
		TotalCount: len(annotated),
		Divisions:  results.UniqueDivisions(source),
		PageSize:   q.PageSize,
	}

	for _, r := range annotated {
		if r.IsUserRow {
			pinned := render(r)
			v.Pinned = &pinned
			break
		}
	}

	sorted := sortRows(annotated, q.Sort)

	v.TotalPages = (len(sorted) + q.PageSize - 1) / q.PageSize
	v.Page = clampPage(q.Page, v.TotalPages)

	start := (v.Page - 1) * q.PageSize
	end := min(start+q.PageSize, len(sorted))
	for _, r := range sorted[start:end] {
		v.Rows = append(v.Rows, render(r))
	}
	return v
}

// clampPage keeps a 1-based page within [1, totalPages].
func clampPage(page, totalPages int) int {
	if totalPages < 1 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

func render(r results.EnhancedRow) Row {
	return Row{
		EnhancedRow:    r,
		Classification: Classify(r),
		Cells:          FormatCells(r.Row),
	}
}
