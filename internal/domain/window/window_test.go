package window_test

import (
	"testing"

	"github.com/okian/finishline/internal/domain/window"
	. "github.com/smartystreets/goconvey/convey"
)

func TestInitialCount(t *testing.T) {
	Convey("Given default reveal settings", t, func() {
		m := window.New()

		Convey("Then the minimum batch applies to narrow layouts", func() {
			So(m.InitialCount(500, 2), ShouldEqual, 20)
		})

		Convey("Then wide layouts fill every column", func() {
			So(m.InitialCount(500, 5), ShouldEqual, 30)
		})

		Convey("Then the count never exceeds the list", func() {
			So(m.InitialCount(7, 5), ShouldEqual, 7)
			So(m.InitialCount(0, 3), ShouldEqual, 0)
		})
	})
}

func TestGrow(t *testing.T) {
	Convey("Given a manager attached to 100 photos in 3 columns", t, func() {
		m := window.New(window.WithMinimumInitialBatch(10), window.WithPerColumnInitialRows(2), window.WithBatchSize(15))
		m.Sync("event-1/bib-7", 100, 3)
		So(m.Visible(), ShouldEqual, 10)

		Convey("When growth signals arrive before the layout settles", func() {
			first, grew := m.Grow()
			second, again := m.Grow()

			Convey("Then only the first one grows the window", func() {
				So(grew, ShouldBeTrue)
				So(again, ShouldBeFalse)
				So(first, ShouldEqual, 25)
				So(second, ShouldEqual, 25)
				So(m.Settling(), ShouldBeTrue)
			})
		})

		Convey("When a layout pass computed before the growth finishes", func() {
			n, grew := m.Grow()
			So(grew, ShouldBeTrue)
			stale := m.Settle(10)
			_, again := m.Grow()

			Convey("Then the growth keeps settling until its own pass runs", func() {
				So(stale, ShouldBeFalse)
				So(again, ShouldBeFalse)
				So(m.Settling(), ShouldBeTrue)
				So(m.Settle(n), ShouldBeTrue)
				So(m.Settling(), ShouldBeFalse)
			})
		})

		Convey("When growing and settling repeatedly", func() {
			last := m.Visible()
			for i := 0; i < 20; i++ {
				n, _ := m.Grow()
				So(n, ShouldBeGreaterThanOrEqualTo, last)
				So(n, ShouldBeLessThanOrEqualTo, 100)
				last = n
				m.Settle(m.Visible())
			}

			Convey("Then the window stops at the list length", func() {
				So(m.Visible(), ShouldEqual, 100)
				_, grew := m.Grow()
				So(grew, ShouldBeFalse)
			})
		})

		Convey("When the column count changes", func() {
			m.Grow()
			reset := m.Sync("event-1/bib-7", 100, 4)

			Convey("Then the window resets to the initial formula", func() {
				So(reset, ShouldBeTrue)
				So(m.Visible(), ShouldEqual, 10)
				So(m.Settling(), ShouldBeFalse)
			})
		})

		Convey("When a different list is attached", func() {
			m.Grow()
			reset := m.Sync("event-1/bib-8", 40, 3)

			Convey("Then the window resets", func() {
				So(reset, ShouldBeTrue)
				So(m.Visible(), ShouldEqual, 10)
			})
		})

		Convey("When the same list grows", func() {
			m.Grow()
			m.Settle(m.Visible())
			reset := m.Sync("event-1/bib-7", 130, 3)

			Convey("Then the reveal count is kept", func() {
				So(reset, ShouldBeFalse)
				So(m.Visible(), ShouldEqual, 25)
			})
		})

		Convey("When an index beyond the window must be shown", func() {
			n := m.RevealThrough(52)

			Convey("Then whole batches are revealed until it is included", func() {
				So(n, ShouldEqual, 55)
				So(m.RevealThrough(1000), ShouldEqual, 100)
			})
		})
	})

	Convey("Given a short list that later grows", t, func() {
		m := window.New()
		m.Sync("e/b", 3, 2)
		So(m.Visible(), ShouldEqual, 3)

		Convey("When more photos arrive for the same list", func() {
			m.Sync("e/b", 12, 2)

			Convey("Then the window is topped up to the initial formula", func() {
				So(m.Visible(), ShouldEqual, 12)
			})
		})
	})

	Convey("Given an empty list", t, func() {
		m := window.New()
		m.Sync("e/b", 0, 2)

		Convey("Then nothing is revealed and growth is a no-op", func() {
			So(m.Visible(), ShouldEqual, 0)
			n, grew := m.Grow()
			So(n, ShouldEqual, 0)
			So(grew, ShouldBeFalse)
		})
	})
}
