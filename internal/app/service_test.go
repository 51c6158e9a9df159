package service_test

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/okian/finishline/internal/adapters/repository"
	service "github.com/okian/finishline/internal/app"
	"github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/internal/domain/gallery"
	"github.com/okian/finishline/internal/domain/leaderboard"
	"github.com/okian/finishline/internal/domain/results"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/internal/domain/viewer"
	"github.com/okian/finishline/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const (
	eventID = "city-marathon-2024"
	bib     = "42"
)

// stubMatcher returns fixed refs, optionally blocking until released.
type stubMatcher struct {
	refs    []types.PhotoRef
	err     error
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (m *stubMatcher) Match(ctx context.Context, _ facematch.Request) ([]types.PhotoRef, error) {
	if m.started != nil {
		m.once.Do(func() { close(m.started) })
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.refs, m.err
}

func photos(n int) []types.PhotoRef {
	out := make([]types.PhotoRef, n)
	for i := range out {
		out[i] = types.PhotoRef(fmt.Sprintf("https://cdn.example.com/%s/%03d.jpg", eventID, i))
	}
	return out
}

func seededStore(t *testing.T) repository.Store {
	t.Helper()
	ctx := context.Background()
	store, err := repository.Open(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.PutEvent(ctx, repository.Event{ID: eventID, Name: "City Marathon", Categories: []string{"marathon"}}); err != nil {
		t.Fatal(err)
	}
	rows := make([]results.Row, 0, 12)
	for i := 1; i <= 12; i++ {
		rows = append(rows, results.Row{Bib: fmt.Sprint(i), Name: fmt.Sprintf("Runner %d", i), Rank: i, Division: "M30-39"})
	}
	if err := store.PutResults(ctx, eventID, "marathon", rows); err != nil {
		t.Fatal(err)
	}
	if err := store.PutPhotos(ctx, eventID, bib, photos(20)); err != nil {
		t.Fatal(err)
	}
	return store
}

func startService(t *testing.T, m facematch.Matcher, opts ...service.Option) *service.Service {
	t.Helper()
	base := []service.Option{
		service.WithStore(seededStore(t)),
		service.WithMatcher(m),
		service.WithWorkerCount(1),
		service.WithWindow(8, 2, 5),
		service.WithPageSizes(5, 8),
	}
	svc := service.New(append(base, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { svc.Stop(context.Background()) })
	return svc
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New()

		Convey("Then operations report it", func() {
			_, err := svc.Gallery("x")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service", t, func() {
		svc := startService(t, &stubMatcher{})

		Convey("Then stats report it running", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["gallerySessions"], ShouldEqual, 0)
		})

		Convey("When it is stopped", func() {
			svc.Stop(context.Background())

			Convey("Then it reports stopped and stopping again is harmless", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				svc.Stop(context.Background())
			})
		})
	})
}

func TestService_Leaderboard(t *testing.T) {
	Convey("Given a service with one event", t, func() {
		svc := startService(t, &stubMatcher{})
		ctx := context.Background()

		Convey("When the default page is requested", func() {
			v, err := svc.Leaderboard(ctx, eventID, "marathon", leaderboard.DefaultQuery())

			Convey("Then it is ranked and sized by configuration", func() {
				So(err, ShouldBeNil)
				So(v.TotalCount, ShouldEqual, 12)
				So(v.Rows[0].Rank, ShouldEqual, 1)
				So(v.Rows[0].IsOverallWinner, ShouldBeTrue)
			})
		})

		Convey("When a page larger than allowed is requested", func() {
			q := leaderboard.DefaultQuery()
			q.PageSize = 50
			v, err := svc.Leaderboard(ctx, eventID, "marathon", q)

			Convey("Then the page size is capped", func() {
				So(err, ShouldBeNil)
				So(v.PageSize, ShouldEqual, 8)
				So(len(v.Rows), ShouldEqual, 8)
			})
		})

		Convey("When no page size is given", func() {
			q := leaderboard.DefaultQuery()
			q.PageSize = 0
			v, _ := svc.Leaderboard(ctx, eventID, "marathon", q)
			So(v.PageSize, ShouldEqual, 5)
		})

		Convey("When the bib is highlighted", func() {
			q := leaderboard.DefaultQuery()
			q.Highlight = "11"
			v, _ := svc.Leaderboard(ctx, eventID, "marathon", q)

			Convey("Then the row is pinned even off the page", func() {
				So(v.Pinned, ShouldNotBeNil)
				So(v.Pinned.Bib, ShouldEqual, "11")
			})
		})

		Convey("Then unknown events and categories are errors", func() {
			_, err := svc.Leaderboard(ctx, "nope", "marathon", leaderboard.DefaultQuery())
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)

			_, err = svc.Leaderboard(ctx, eventID, "ultra", leaderboard.DefaultQuery())
			So(errors.Is(err, leaderboard.ErrUnknownCategory), ShouldBeTrue)
		})
	})
}

func TestService_Gallery(t *testing.T) {
	Convey("Given an open gallery of twenty photos", t, func() {
		svc := startService(t, &stubMatcher{})
		ctx := context.Background()

		snap, err := svc.OpenGallery(ctx, eventID, bib, 1200)
		So(err, ShouldBeNil)
		id := snap.ID

		Convey("Then the initial window is revealed and laid out", func() {
			So(snap.Total, ShouldEqual, 20)
			So(snap.Visible, ShouldEqual, 8)
			So(len(snap.Layout.Placements), ShouldEqual, 8)
			So(snap.Layout.Columns, ShouldEqual, 4)
		})

		Convey("When it grows", func() {
			res, err := svc.Grow(id)

			Convey("Then one batch is added", func() {
				So(err, ShouldBeNil)
				So(res.Grew, ShouldBeTrue)
				So(res.Snapshot.Visible, ShouldEqual, 13)
			})
		})

		Convey("When it is resized to a phone", func() {
			s, err := svc.Resize(id, 375)

			Convey("Then the layout uses two columns", func() {
				So(err, ShouldBeNil)
				So(s.Layout.Columns, ShouldEqual, 2)
				So(s.Visible, ShouldEqual, 8)
			})
		})

		Convey("When natural sizes are reported", func() {
			err := svc.ReportSizes(id, []gallery.SizeReport{{Ref: photos(1)[0], Width: 400, Height: 800}})
			So(err, ShouldBeNil)

			Convey("Then the next snapshot lays the photo out at its own aspect", func() {
				s, err := svc.Gallery(id)
				So(err, ShouldBeNil)
				p, ok := s.Layout.Find(0)
				So(ok, ShouldBeTrue)
				So(p.Ref, ShouldEqual, photos(1)[0])
				So(p.Placeholder, ShouldBeFalse)
				So(p.Height, ShouldEqual, 2*p.Width)

				other, ok := s.Layout.Find(1)
				So(ok, ShouldBeTrue)
				So(other.Placeholder, ShouldBeTrue)
			})
		})

		Convey("When a batch carries a size that is not positive", func() {
			refs := photos(2)
			err := svc.ReportSizes(id, []gallery.SizeReport{
				{Ref: refs[0], Width: 400, Height: 800},
				{Ref: refs[1], Width: 0, Height: 300},
			})

			Convey("Then it is rejected and nothing is recorded", func() {
				So(errors.Is(err, gallery.ErrInvalidSize), ShouldBeTrue)
				s, err := svc.Gallery(id)
				So(err, ShouldBeNil)
				p, _ := s.Layout.Find(0)
				So(p.Placeholder, ShouldBeTrue)
			})
		})

		Convey("When the viewer steps back from the first photo", func() {
			q := url.Values{}
			q.Set(viewer.QueryParam, "0")
			f, err := svc.View(id, q, viewer.Back)

			Convey("Then it wraps to the last photo", func() {
				So(err, ShouldBeNil)
				So(f.Index, ShouldEqual, 19)
				So(f.Share, ShouldEqual, "photo=19")
			})
		})

		Convey("When the viewer closes beyond the revealed photos", func() {
			q := url.Values{}
			q.Set(viewer.QueryParam, "15")
			target, err := svc.CloseViewer(id, q)

			Convey("Then the target is revealed and placed", func() {
				So(err, ShouldBeNil)
				So(target.Found, ShouldBeTrue)
				So(target.Index, ShouldEqual, 15)
			})
		})

		Convey("When a download is requested", func() {
			d, err := svc.Download(id, 2)
			So(err, ShouldBeNil)
			So(d.Filename, ShouldEqual, "city-marathon-2024-42-03.jpg")

			_, err = svc.Download(id, 99)
			So(errors.Is(err, gallery.ErrPhotoOutOfRange), ShouldBeTrue)
		})

		Convey("When it is closed", func() {
			So(svc.CloseGallery(id), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := svc.Gallery(id)
				So(errors.Is(err, gallery.ErrSessionNotFound), ShouldBeTrue)
				So(errors.Is(svc.CloseGallery(id), gallery.ErrSessionNotFound), ShouldBeTrue)
			})
		})

		Convey("Then galleries for unknown events are refused", func() {
			_, err := svc.OpenGallery(ctx, "nope", bib, 1200)
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Selfie(t *testing.T) {
	Convey("Given a gallery and a matcher finding new photos", t, func() {
		m := &stubMatcher{refs: []types.PhotoRef{"https://cdn.example.com/extra/1.jpg", photos(1)[0]}}
		svc := startService(t, m)
		ctx := context.Background()
		snap, err := svc.OpenGallery(ctx, eventID, bib, 1200)
		So(err, ShouldBeNil)

		Convey("When a selfie is submitted", func() {
			r, err := svc.SubmitSelfie(ctx, snap.ID, "req-1", []byte("face"))
			So(err, ShouldBeNil)
			So(r.Status, ShouldEqual, "accepted")

			Convey("Then the new photo is merged and matches are flagged", func() {
				So(waitFor(func() bool {
					s, _ := svc.Gallery(snap.ID)
					return s.Total == 21
				}), ShouldBeTrue)
				s, _ := svc.Gallery(snap.ID)
				So(s.Photos[0].SelfieMatch, ShouldBeTrue)
				So(s.Photos[1].SelfieMatch, ShouldBeFalse)
			})

			Convey("And the same request is a duplicate", func() {
				r, err := svc.SubmitSelfie(ctx, snap.ID, "req-1", []byte("face"))
				So(err, ShouldBeNil)
				So(r.Duplicate, ShouldBeTrue)
			})
		})

		Convey("Then an empty selfie is refused", func() {
			_, err := svc.SubmitSelfie(ctx, snap.ID, "", nil)
			So(errors.Is(err, facematch.ErrEmptySelfie), ShouldBeTrue)
		})

		Convey("Then a missing request ID is generated", func() {
			r, err := svc.SubmitSelfie(ctx, snap.ID, "", []byte("face"))
			So(err, ShouldBeNil)
			So(r.RequestID, ShouldNotBeBlank)
		})
	})

	Convey("Given a matcher that fails", t, func() {
		svc := startService(t, &stubMatcher{err: facematch.ErrMatchFailed})
		ctx := context.Background()
		snap, _ := svc.OpenGallery(ctx, eventID, bib, 1200)

		Convey("Then the request can be retried after the failure", func() {
			_, err := svc.SubmitSelfie(ctx, snap.ID, "req-x", []byte("face"))
			So(err, ShouldBeNil)
			So(waitFor(func() bool {
				r, err := svc.SubmitSelfie(ctx, snap.ID, "req-x", []byte("face"))
				return err == nil && !r.Duplicate
			}), ShouldBeTrue)
		})
	})

	Convey("Given a matcher that blocks and a tiny queue", t, func() {
		m := &stubMatcher{started: make(chan struct{}), release: make(chan struct{})}
		svc := startService(t, m, service.WithQueueSize(1))
		ctx := context.Background()
		snap, _ := svc.OpenGallery(ctx, eventID, bib, 1200)
		defer close(m.release)

		_, err := svc.SubmitSelfie(ctx, snap.ID, "first", []byte("face"))
		So(err, ShouldBeNil)
		<-m.started

		Convey("Then further selfies hit backpressure", func() {
			var last error
			for i := 0; i < 5 && last == nil; i++ {
				_, last = svc.SubmitSelfie(ctx, snap.ID, fmt.Sprintf("more-%d", i), []byte("face"))
			}
			So(errors.Is(last, facematch.ErrBackpressure), ShouldBeTrue)
		})
	})
}
