package results

import (
	"sort"
	"strings"

	"github.com/okian/finishline/internal/domain/types"
)

// FilterBySearch keeps rows whose name contains query (case-insensitive) or
// whose bib contains it. A blank query returns rows unchanged.
func FilterBySearch(rows []Row, query string) []Row {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.Bib), q) {
			out = append(out, r)
		}
	}
	return out
}

// ApplyFilters keeps rows matching the division and gender selections.
// Rows without a division or gender never match a concrete selection.
func ApplyFilters(rows []Row, f FilterState) []Row {
	division := selection(f.Division)
	gender := selection(f.Gender)
	if division == "" && gender == "" {
		return rows
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if division != "" && (r.Division == "" || r.Division != division) {
			continue
		}
		if gender != "" && (r.Gender == "" || string(r.Gender) != gender) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// selection normalizes a filter value; "" means no filtering.
func selection(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, types.All) {
		return ""
	}
	return v
}

// UniqueDivisions lists the distinct non-empty divisions in rows, ascending.
// Callers pass the unfiltered rows so every choice stays reachable.
func UniqueDivisions(rows []Row) []string {
	set := make(map[string]struct{})
	for _, r := range rows {
		if strings.TrimSpace(r.Division) == "" {
			continue
		}
		set[r.Division] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for d := range set {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
