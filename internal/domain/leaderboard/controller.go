package leaderboard

import (
	"github.com/okian/finishline/internal/domain/results"
)

// Controller keeps the leaderboard query a viewer is editing and rebuilds
// the view from it. It is not safe for concurrent use.
type Controller struct {
	rows  []results.Row
	query Query
}

// NewController creates a controller over one category's rows.
func NewController(rows []results.Row) *Controller {
	return &Controller{rows: rows, query: DefaultQuery()}
}

// SetRows replaces the source rows, e.g. after a refetch. Query state is kept.
func (c *Controller) SetRows(rows []results.Row) { c.rows = rows }

// SetSearch changes the search text and returns to the first page.
func (c *Controller) SetSearch(q string) {
	c.query.Search = q
	c.query.Page = 1
}

// SetFilters changes the division/gender selection and returns to the first page.
func (c *Controller) SetFilters(f results.FilterState) {
	c.query.Filters = f
	c.query.Page = 1
}

// ResetFilters selects every division and gender again.
func (c *Controller) ResetFilters() { c.SetFilters(results.DefaultFilters()) }

// SetHighlight sets the bib to pin and mark as the user row.
func (c *Controller) SetHighlight(bib string) { c.query.Highlight = bib }

// SetSort changes the sort column and direction.
func (c *Controller) SetSort(s Sort) { c.query.Sort = s }

// SetPage moves to a 1-based page. Out-of-range pages clamp on the next View.
func (c *Controller) SetPage(page int) { c.query.Page = page }

// SetPageSize changes the page size and returns to the first page.
func (c *Controller) SetPageSize(size int) {
	if size < 1 {
		size = DefaultPageSize
	}
	c.query.PageSize = size
	c.query.Page = 1
}

// Query returns the current query.
func (c *Controller) Query() Query { return c.query }

// View builds the current page and remembers the clamped page number.
func (c *Controller) View() View {
	v := BuildView(c.rows, c.query)
	c.query.Page = v.Page
	c.query.PageSize = v.PageSize
	return v
}
