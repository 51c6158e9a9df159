package facematch_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/finishline/internal/domain/facematch"
	"github.com/okian/finishline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

type catalog struct {
	photos []types.PhotoRef
	err    error
}

func (c catalog) EventPhotos(context.Context, string) ([]types.PhotoRef, error) {
	return c.photos, c.err
}

func eventPhotos(n int) []types.PhotoRef {
	out := make([]types.PhotoRef, n)
	for i := range out {
		out[i] = types.PhotoRef(fmt.Sprintf("e/%03d.jpg", i))
	}
	return out
}

func TestInMemoryMatcher(t *testing.T) {
	Convey("Given a matcher over a catalog of 50 photos", t, func() {
		m := facematch.NewInMemoryMatcher(
			catalog{photos: eventPhotos(50)},
			facematch.WithLatencyRange(time.Millisecond, 2*time.Millisecond),
			facematch.WithMaxMatches(4),
		)
		req := facematch.Request{EventID: "city", Bib: "42", Selfie: []byte("face-a")}

		Convey("When the same selfie is matched twice", func() {
			first, err := m.Match(context.Background(), req)
			So(err, ShouldBeNil)
			second, err := m.Match(context.Background(), req)
			So(err, ShouldBeNil)

			Convey("Then the results are identical and bounded", func() {
				So(len(first), ShouldEqual, 4)
				So(second, ShouldResemble, first)
				So(types.NewRefSet(first...), ShouldHaveLength, 4)
			})
		})

		Convey("When the selfie is empty", func() {
			_, err := m.Match(context.Background(), facematch.Request{EventID: "city"})
			So(err, ShouldEqual, facematch.ErrEmptySelfie)
		})

		Convey("When the context is already canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := m.Match(ctx, req)

			Convey("Then the match fails", func() {
				So(errors.Is(err, facematch.ErrMatchFailed), ShouldBeTrue)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})

	Convey("Given a failing catalog", t, func() {
		boom := errors.New("boom")
		m := facematch.NewInMemoryMatcher(catalog{err: boom},
			facematch.WithLatencyRange(time.Millisecond, 2*time.Millisecond))

		Convey("Then the error is wrapped", func() {
			_, err := m.Match(context.Background(), facematch.Request{Selfie: []byte{1}})
			So(errors.Is(err, facematch.ErrMatchFailed), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
		})
	})

	Convey("Given an empty catalog", t, func() {
		m := facematch.NewInMemoryMatcher(catalog{},
			facematch.WithLatencyRange(time.Millisecond, 2*time.Millisecond))

		Convey("Then nothing matches", func() {
			out, err := m.Match(context.Background(), facematch.Request{Selfie: []byte{1}})
			So(err, ShouldBeNil)
			So(out, ShouldBeEmpty)
		})
	})
}
