// Package viewer implements circular navigation through a gallery and keeps
// the open photo index in a shareable state slot.
package viewer

import (
	"net/url"
	"strconv"

	"github.com/okian/finishline/internal/domain/layout"
)

// Next returns the index after index, wrapping to 0.
func Next(index, total int) (int, error) {
	if total <= 0 {
		return 0, ErrNoPhotos
	}
	return (normalize(index, total) + 1) % total, nil
}

// Previous returns the index before index, wrapping to total-1.
func Previous(index, total int) (int, error) {
	if total <= 0 {
		return 0, ErrNoPhotos
	}
	return (normalize(index, total) - 1 + total) % total, nil
}

func normalize(index, total int) int {
	index %= total
	if index < 0 {
		index += total
	}
	return index
}

// IndexState holds the open photo index outside the navigator, e.g. in a URL.
type IndexState interface {
	Index() (int, bool)
	SetIndex(int)
	Clear()
}

// QueryParam is the query key carrying the open photo index.
const QueryParam = "photo"

// QueryState stores the index in url.Values so a link reopens the same photo.
type QueryState struct {
	Values url.Values
}

// NewQueryState wraps v. A nil v starts empty.
func NewQueryState(v url.Values) *QueryState {
	if v == nil {
		v = url.Values{}
	}
	return &QueryState{Values: v}
}

// Index implements IndexState. Malformed or negative values read as absent.
func (q *QueryState) Index() (int, bool) {
	raw := q.Values.Get(QueryParam)
	if raw == "" {
		return 0, false
	}
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// SetIndex implements IndexState.
func (q *QueryState) SetIndex(i int) { q.Values.Set(QueryParam, strconv.Itoa(i)) }

// Clear implements IndexState.
func (q *QueryState) Clear() { q.Values.Del(QueryParam) }

// Encode renders the state as a query string.
func (q *QueryState) Encode() string { return q.Values.Encode() }

// Direction is a navigation step.
type Direction string

// Steps.
const (
	Stay Direction = ""
	Fwd  Direction = "next"
	Back Direction = "prev"
)

// ParseDirection accepts next/prev and their short forms. Anything else stays.
func ParseDirection(s string) Direction {
	switch s {
	case "next", "n", "forward":
		return Fwd
	case "prev", "p", "previous", "back":
		return Back
	default:
		return Stay
	}
}

// ScrollTarget is where the grid should scroll after the viewer closes.
type ScrollTarget struct {
	Index  int  `json:"index"`
	Column int  `json:"column"`
	Y      int  `json:"y"`
	Found  bool `json:"found"`
}

// Navigator drives open, step and close against an IndexState.
type Navigator struct {
	state IndexState
}

// NewNavigator creates a navigator over state.
func NewNavigator(state IndexState) *Navigator {
	return &Navigator{state: state}
}

// Open shows the photo at index, normalized into range.
func (n *Navigator) Open(index, total int) (int, error) {
	if total <= 0 {
		return 0, ErrNoPhotos
	}
	i := normalize(index, total)
	n.state.SetIndex(i)
	return i, nil
}

// Current returns the open index, if any, normalized into range.
func (n *Navigator) Current(total int) (int, bool) {
	i, ok := n.state.Index()
	if !ok || total <= 0 {
		return 0, false
	}
	return normalize(i, total), true
}

// Step moves the open photo one step in d.
func (n *Navigator) Step(d Direction, total int) (int, error) {
	if total <= 0 {
		return 0, ErrNoPhotos
	}
	i, ok := n.Current(total)
	if !ok {
		return 0, ErrNotOpen
	}
	var err error
	switch d {
	case Fwd:
		i, err = Next(i, total)
	case Back:
		i, err = Previous(i, total)
	}
	if err != nil {
		return 0, err
	}
	n.state.SetIndex(i)
	return i, nil
}

// Close clears the state and returns a best-effort scroll target from l.
// Found is false when the photo is not placed in l yet.
func (n *Navigator) Close(total int, l layout.Layout) (ScrollTarget, error) {
	i, ok := n.Current(total)
	n.state.Clear()
	if !ok {
		return ScrollTarget{}, ErrNotOpen
	}
	t := ScrollTarget{Index: i}
	if p, found := l.Find(i); found {
		t.Column = p.Column
		t.Y = p.Y
		t.Found = true
	}
	return t, nil
}
