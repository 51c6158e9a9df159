// Package gallery composes the window, layout and viewer engines into one
// photo stream session per gallery view.
package gallery

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/finishline/internal/domain/layout"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/internal/domain/viewer"
	"github.com/okian/finishline/internal/domain/window"
)

// Photo is one revealed photo in a snapshot.
type Photo struct {
	Ref         types.PhotoRef `json:"ref"`
	SelfieMatch bool           `json:"selfie_match"`
}

// Snapshot is the state of a session after any pending layout pass ran.
type Snapshot struct {
	ID             string        `json:"id"`
	EventID        string        `json:"event_id"`
	Bib            string        `json:"bib"`
	Total          int           `json:"total"`
	Visible        int           `json:"visible"`
	Settling       bool          `json:"settling"`
	ContainerWidth int           `json:"container_width"`
	Device         layout.Device `json:"device"`
	Photos         []Photo       `json:"photos"`
	Layout         layout.Layout `json:"layout"`
}

// GrowResult is the state of a session after a growth request.
type GrowResult struct {
	Grew     bool     `json:"grew"`
	Snapshot Snapshot `json:"snapshot"`
}

// SizeReport is the natural size of one loaded photo, in whole pixels.
type SizeReport struct {
	Ref    types.PhotoRef `json:"ref"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
}

// Size validates the report and returns it as a layout size.
func (r SizeReport) Size() (layout.Size, error) {
	size := layout.Size{Width: r.Width, Height: r.Height}
	if !size.Known() {
		return layout.Size{}, fmt.Errorf("%s %dx%d: %w", r.Ref, r.Width, r.Height, ErrInvalidSize)
	}
	return size, nil
}

// Frame is what the viewer shows for one photo.
type Frame struct {
	Index       int            `json:"index"`
	Total       int            `json:"total"`
	Ref         types.PhotoRef `json:"ref"`
	SelfieMatch bool           `json:"selfie_match"`
	Share       string         `json:"share"`
}

// Download is a suggested download for one photo. Whether it succeeds is up
// to the client.
type Download struct {
	URL      types.PhotoRef `json:"url"`
	Filename string         `json:"filename"`
}

// Session is the photo stream of one participant in one gallery view.
type Session struct {
	id         string
	eventID    string
	bib        string
	windowOpts []window.Option
	layoutOpts []layout.Option
	observer   func(layout.Layout)
	now        func() time.Time

	win *window.Manager
	eng *layout.Engine

	mu       sync.Mutex
	photos   []types.PhotoRef
	members  types.RefSet
	selfie   types.RefSet
	width    int
	columns  int
	device   layout.Device
	lastSeen time.Time
	closed   bool
}

// NewSession opens a stream over photos for a container of the given width.
// Duplicate refs are dropped, keeping the first occurrence.
func NewSession(eventID, bib string, photos []types.PhotoRef, width int, opts ...SessionOption) *Session {
	s := &Session{
		id:      uuid.NewString(),
		eventID: eventID,
		bib:     bib,
		now:     time.Now,
		members: types.NewRefSet(),
		selfie:  types.NewRefSet(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, p := range photos {
		if s.members.Add(p) {
			s.photos = append(s.photos, p)
		}
	}
	s.lastSeen = s.now()
	s.width = max(width, 0)
	s.columns, s.device = layout.ColumnsFor(s.width)

	s.win = window.New(s.windowOpts...)
	lopts := append(append([]layout.Option(nil), s.layoutOpts...), layout.WithOnLayout(s.laidOut))
	s.eng = layout.NewEngine(s.width, s.columns, s.device, lopts...)

	s.win.Sync(s.listID(), len(s.photos), s.columns)
	s.reveal()
	return s
}

// laidOut runs after each layout pass, outside the engine lock. It must not
// take s.mu because passes can be flushed while s.mu is held.
func (s *Session) laidOut(l layout.Layout) {
	s.win.Settle(len(l.Placements))
	if s.observer != nil {
		s.observer(l)
	}
}

func (s *Session) listID() string { return s.eventID + "/" + s.bib }

// reveal pushes the visible prefix to the layout engine.
func (s *Session) reveal() {
	n := min(s.win.Visible(), len(s.photos))
	s.eng.SetItems(s.photos[:n])
}

func (s *Session) touch() error {
	if s.closed {
		return ErrSessionClosed
	}
	s.lastSeen = s.now()
	return nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// EventID returns the event the session shows.
func (s *Session) EventID() string { return s.eventID }

// LastSeen returns when the session was last used.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Grow reveals the next batch. It reports false when the growth was
// coalesced with one still settling or everything is already revealed.
func (s *Session) Grow() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return false, err
	}
	if _, grew := s.win.Grow(); !grew {
		return false, nil
	}
	s.reveal()
	return true, nil
}

// Resize applies a new container width. A different column count resets
// the reveal count.
func (s *Session) Resize(width int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return err
	}
	s.width = max(width, 0)
	s.columns, s.device = layout.ColumnsFor(s.width)
	s.eng.Resize(s.width, s.columns, s.device)
	s.win.Sync(s.listID(), len(s.photos), s.columns)
	s.reveal()
	return nil
}

// ReportSizes records natural sizes of loaded photos. Nothing is recorded
// unless every report is valid. Unknown refs are ignored.
func (s *Session) ReportSizes(reports []SizeReport) error {
	sizes := make([]layout.Size, len(reports))
	for i, r := range reports {
		size, err := r.Size()
		if err != nil {
			return err
		}
		sizes[i] = size
	}
	for i, r := range reports {
		if err := s.ReportSize(r.Ref, sizes[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReportSize records the natural size of a loaded photo. Unknown refs are ignored.
func (s *Session) ReportSize(ref types.PhotoRef, size layout.Size) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return err
	}
	if s.members.Has(ref) {
		s.eng.SetSize(ref, size)
	}
	return nil
}

// Merge appends face-match results. New refs go to the end of the stream;
// every matched ref is flagged as a selfie match. It returns how many refs
// were new.
func (s *Session) Merge(refs []types.PhotoRef) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return 0, err
	}
	added := 0
	for _, r := range refs {
		if r == "" {
			continue
		}
		s.selfie.Add(r)
		if s.members.Add(r) {
			s.photos = append(s.photos, r)
			added++
		}
	}
	if added > 0 {
		s.win.Sync(s.listID(), len(s.photos), s.columns)
		s.reveal()
	}
	return added, nil
}

// Snapshot runs any pending layout pass and returns the session state.
func (s *Session) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return Snapshot{}, err
	}
	l := s.eng.Flush()
	visible := min(s.win.Visible(), len(s.photos))
	photos := make([]Photo, visible)
	for i, r := range s.photos[:visible] {
		photos[i] = Photo{Ref: r, SelfieMatch: s.selfie.Has(r)}
	}
	return Snapshot{
		ID:             s.id,
		EventID:        s.eventID,
		Bib:            s.bib,
		Total:          len(s.photos),
		Visible:        visible,
		Settling:       s.win.Settling(),
		ContainerWidth: s.width,
		Device:         s.device,
		Photos:         photos,
		Layout:         l,
	}, nil
}

// View opens the viewer at the photo named in q, then steps in d. Without a
// photo in q the viewer opens at the first photo. q is updated in place and
// also returned encoded as Share.
func (s *Session) View(q url.Values, d viewer.Direction) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return Frame{}, err
	}
	total := len(s.photos)
	state := viewer.NewQueryState(q)
	nav := viewer.NewNavigator(state)

	start, ok := state.Index()
	if _, err := nav.Open(start, total); err != nil {
		return Frame{}, err
	}
	if ok {
		if _, err := nav.Step(d, total); err != nil {
			return Frame{}, err
		}
	}
	i, _ := nav.Current(total)
	return Frame{
		Index:       i,
		Total:       total,
		Ref:         s.photos[i],
		SelfieMatch: s.selfie.Has(s.photos[i]),
		Share:       state.Encode(),
	}, nil
}

// CloseViewer closes the viewer opened at the photo named in q and returns
// where the grid should scroll. A photo beyond the revealed prefix is
// revealed first so the target can be placed.
func (s *Session) CloseViewer(q url.Values) (viewer.ScrollTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return viewer.ScrollTarget{}, err
	}
	total := len(s.photos)
	if total == 0 {
		return viewer.ScrollTarget{}, viewer.ErrNoPhotos
	}
	state := viewer.NewQueryState(q)
	nav := viewer.NewNavigator(state)
	i, ok := nav.Current(total)
	if !ok {
		return viewer.ScrollTarget{}, viewer.ErrNotOpen
	}
	if i >= s.win.Visible() {
		s.win.RevealThrough(i)
		s.reveal()
	}
	return nav.Close(total, s.eng.Flush())
}

// Download suggests a filename for the photo at index.
func (s *Session) Download(index int) (Download, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.touch(); err != nil {
		return Download{}, err
	}
	if index < 0 || index >= len(s.photos) {
		return Download{}, ErrPhotoOutOfRange
	}
	return Download{
		URL:      s.photos[index],
		Filename: fmt.Sprintf("%s-%s-%02d.jpg", slug(s.eventID), slug(s.bib), index+1),
	}, nil
}

// Close cancels pending layout work. Later calls return ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.eng.Close()
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LayoutStats returns completed layout passes and coalesced requests.
func (s *Session) LayoutStats() (passes, coalesced int) {
	return s.eng.Stats()
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "photo"
	}
	return out
}
