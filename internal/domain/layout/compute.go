package layout

import (
	"math"

	"github.com/okian/finishline/internal/domain/types"
)

// DefaultPlaceholderAspect is height/width assumed before a photo's size is known.
const DefaultPlaceholderAspect = 1.5

// Size is a natural image size in pixels. Zero values mean unknown.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Known reports whether both dimensions are positive.
func (s Size) Known() bool { return s.Width > 0 && s.Height > 0 }

// Item is one revealed photo.
type Item struct {
	Ref  types.PhotoRef
	Size Size
}

// Params are the inputs of one layout pass.
type Params struct {
	Columns           int
	ContainerWidth    int
	Gap               int
	PlaceholderAspect float64
}

// Placement is where one item lands.
type Placement struct {
	Index       int            `json:"index"`
	Ref         types.PhotoRef `json:"ref"`
	Column      int            `json:"column"`
	X           int            `json:"x"`
	Y           int            `json:"y"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Placeholder bool           `json:"placeholder"`
}

// Layout is the result of one pass.
type Layout struct {
	Columns       int         `json:"columns"`
	ColumnWidth   int         `json:"column_width"`
	Gap           int         `json:"gap"`
	Placements    []Placement `json:"placements"`
	ColumnHeights []int       `json:"column_heights"`
	Height        int         `json:"height"`
}

// Compute places items shortest-column-first; ties go to the lowest column.
// Items with unknown size use the placeholder aspect ratio.
func Compute(items []Item, p Params) Layout {
	columns := max(p.Columns, 1)
	gap := max(p.Gap, 0)
	aspect := p.PlaceholderAspect
	if aspect <= 0 {
		aspect = DefaultPlaceholderAspect
	}
	colWidth := ColumnWidth(p.ContainerWidth, columns, gap)

	l := Layout{
		Columns:       columns,
		ColumnWidth:   colWidth,
		Gap:           gap,
		Placements:    make([]Placement, 0, len(items)),
		ColumnHeights: make([]int, columns),
	}

	for i, it := range items {
		col := shortest(l.ColumnHeights)
		h, placeholder := itemHeight(it.Size, colWidth, aspect)
		y := l.ColumnHeights[col]
		if y > 0 {
			y += gap
		}
		l.Placements = append(l.Placements, Placement{
			Index:       i,
			Ref:         it.Ref,
			Column:      col,
			X:           col * (colWidth + gap),
			Y:           y,
			Width:       colWidth,
			Height:      h,
			Placeholder: placeholder,
		})
		l.ColumnHeights[col] = y + h
	}

	for _, h := range l.ColumnHeights {
		l.Height = max(l.Height, h)
	}
	return l
}

func shortest(heights []int) int {
	best := 0
	for i, h := range heights {
		if h < heights[best] {
			best = i
		}
	}
	return best
}

func itemHeight(s Size, colWidth int, aspect float64) (int, bool) {
	if !s.Known() {
		return int(math.Round(float64(colWidth) * aspect)), true
	}
	return int(math.Round(float64(colWidth) * float64(s.Height) / float64(s.Width))), false
}

// Find returns the placement of the item at index.
func (l Layout) Find(index int) (Placement, bool) {
	if index < 0 || index >= len(l.Placements) {
		return Placement{}, false
	}
	return l.Placements[index], true
}

// PerColumn counts items per column.
func (l Layout) PerColumn() []int {
	out := make([]int, l.Columns)
	for _, p := range l.Placements {
		out[p.Column]++
	}
	return out
}
