package leaderboard

import (
	"sort"
	"strconv"
	"strings"

	"github.com/okian/finishline/internal/domain/results"
)

// SortKey names a sortable leaderboard column.
type SortKey string

// Sortable columns.
const (
	SortRank           SortKey = "rank"
	SortName           SortKey = "name"
	SortBib            SortKey = "bib"
	SortChipTime       SortKey = "chip_time"
	SortAvgPace        SortKey = "avg_pace"
	SortDivision       SortKey = "division"
	SortGender         SortKey = "gender"
	SortAge            SortKey = "age"
	SortDivisionPlace  SortKey = "division_place"
	SortAgePerformance SortKey = "age_performance"
)

var sortKeys = map[SortKey]struct{}{
	SortRank: {}, SortName: {}, SortBib: {}, SortChipTime: {}, SortAvgPace: {},
	SortDivision: {}, SortGender: {}, SortAge: {}, SortDivisionPlace: {}, SortAgePerformance: {},
}

// ParseSortKey validates a column name. The empty string selects rank.
func ParseSortKey(s string) (SortKey, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortRank, true
	}
	k := SortKey(s)
	_, ok := sortKeys[k]
	return k, ok
}

// Sort selects a column and direction.
type Sort struct {
	Key  SortKey `json:"key"`
	Desc bool    `json:"desc"`
}

// DefaultSort orders by rank ascending.
func DefaultSort() Sort { return Sort{Key: SortRank} }

// sortValue is one cell reduced to something comparable.
type sortValue struct {
	missing bool
	num     float64
	str     string
	numeric bool
}

func num(v float64) sortValue { return sortValue{num: v, numeric: true} }
func str(v string) sortValue  { return sortValue{str: v} }
func missing() sortValue      { return sortValue{missing: true} }

func intPtr(p *int) sortValue {
	if p == nil {
		return missing()
	}
	return num(float64(*p))
}

func valueOf(r results.Row, key SortKey) sortValue {
	switch key {
	case SortName:
		if strings.TrimSpace(r.Name) == "" {
			return missing()
		}
		return str(strings.ToLower(r.Name))
	case SortBib:
		if r.Bib == "" {
			return missing()
		}
		if n, err := strconv.Atoi(r.Bib); err == nil {
			return num(float64(n))
		}
		return str(strings.ToLower(r.Bib))
	case SortDivision:
		if strings.TrimSpace(r.Division) == "" {
			return missing()
		}
		return str(r.Division)
	case SortGender:
		if r.Gender == "" {
			return missing()
		}
		return str(string(r.Gender))
	case SortAge:
		return intPtr(r.Age)
	case SortDivisionPlace:
		return intPtr(r.DivisionPlace)
	case SortAgePerformance:
		if !r.HasAgePerformance() {
			return missing()
		}
		return num(*r.AgePerformance)
	default:
		// chip_time and avg_pace are display strings; rank is their order.
		if r.Rank <= 0 {
			return missing()
		}
		return num(float64(r.Rank))
	}
}

// compare orders present values by direction; missing values always sink.
func compare(a, b sortValue, desc bool) int {
	switch {
	case a.missing && b.missing:
		return 0
	case a.missing:
		return 1
	case b.missing:
		return -1
	}
	c := 0
	switch {
	case a.numeric && b.numeric:
		if a.num < b.num {
			c = -1
		} else if a.num > b.num {
			c = 1
		}
	case a.numeric != b.numeric:
		// numbers before text, e.g. numeric bibs before lettered ones
		if a.numeric {
			c = -1
		} else {
			c = 1
		}
	default:
		c = strings.Compare(a.str, b.str)
	}
	if desc {
		c = -c
	}
	return c
}

// sortRows stable-sorts a copy of rows; ties keep the incoming (rank) order.
func sortRows(rows []results.EnhancedRow, s Sort) []results.EnhancedRow {
	out := make([]results.EnhancedRow, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return compare(valueOf(out[i].Row, s.Key), valueOf(out[j].Row, s.Key), s.Desc) < 0
	})
	return out
}

// byRank returns rows stable-sorted by rank ascending.
func byRank(rows []results.Row) []results.Row {
	out := make([]results.Row, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return compare(valueOf(out[i], SortRank), valueOf(out[j], SortRank), false) < 0
	})
	return out
}
