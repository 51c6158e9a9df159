package leaderboard

import (
	"strconv"
	"strings"

	"github.com/okian/finishline/internal/domain/results"
	"github.com/okian/finishline/internal/domain/types"
)

// Cells holds the display text of a row. Missing values render as types.Placeholder.
type Cells struct {
	Rank           string `json:"rank"`
	Bib            string `json:"bib"`
	Name           string `json:"name"`
	ChipTime       string `json:"chip_time"`
	AvgPace        string `json:"avg_pace"`
	Division       string `json:"division"`
	Gender         string `json:"gender"`
	Age            string `json:"age"`
	DivisionPlace  string `json:"division_place"`
	AgePerformance string `json:"age_performance"`
}

// FormatCells renders r for display.
func FormatCells(r results.Row) Cells {
	c := Cells{
		Rank:           types.Placeholder,
		Bib:            orPlaceholder(r.Bib),
		Name:           orPlaceholder(r.Name),
		ChipTime:       orPlaceholder(r.ChipTime),
		AvgPace:        orPlaceholder(r.AvgPace),
		Division:       orPlaceholder(r.Division),
		Gender:         orPlaceholder(string(r.Gender)),
		Age:            types.Placeholder,
		DivisionPlace:  types.Placeholder,
		AgePerformance: types.Placeholder,
	}
	if r.Rank > 0 {
		c.Rank = strconv.Itoa(r.Rank)
	}
	if r.Age != nil && *r.Age >= 0 {
		c.Age = strconv.Itoa(*r.Age)
	}
	if r.DivisionPlace != nil && *r.DivisionPlace > 0 {
		c.DivisionPlace = strconv.Itoa(*r.DivisionPlace)
	}
	if r.HasAgePerformance() {
		c.AgePerformance = strconv.FormatFloat(*r.AgePerformance, 'f', 2, 64) + "%"
	}
	return c
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return types.Placeholder
	}
	return s
}
