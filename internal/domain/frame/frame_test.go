package frame_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/finishline/internal/domain/frame"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTimer(t *testing.T) {
	Convey("Given a timer scheduler", t, func() {
		s := frame.NewTimer(5 * time.Millisecond)
		var runs atomic.Int32

		Convey("When many requests arrive within one frame", func() {
			first := s.Request(func() { runs.Add(1) })
			second := s.Request(func() { runs.Add(1) })
			third := s.Request(func() { runs.Add(1) })

			Convey("Then they coalesce into a single run", func() {
				So(first, ShouldBeTrue)
				So(second, ShouldBeFalse)
				So(third, ShouldBeFalse)
				So(func() bool {
					deadline := time.Now().Add(time.Second)
					for time.Now().Before(deadline) {
						if runs.Load() == 1 {
							return true
						}
						time.Sleep(time.Millisecond)
					}
					return false
				}(), ShouldBeTrue)
				time.Sleep(20 * time.Millisecond)
				So(runs.Load(), ShouldEqual, 1)
			})
		})

		Convey("When flushing a pending request", func() {
			s.Request(func() { runs.Add(1) })
			ran := s.Flush()

			Convey("Then it runs immediately and only once", func() {
				So(ran, ShouldBeTrue)
				So(runs.Load(), ShouldEqual, 1)
				time.Sleep(20 * time.Millisecond)
				So(runs.Load(), ShouldEqual, 1)
				So(s.Flush(), ShouldBeFalse)
			})
		})

		Convey("When canceled", func() {
			s.Request(func() { runs.Add(1) })
			s.Cancel()
			accepted := s.Request(func() { runs.Add(1) })

			Convey("Then nothing runs afterwards", func() {
				So(accepted, ShouldBeFalse)
				time.Sleep(20 * time.Millisecond)
				So(runs.Load(), ShouldEqual, 0)
			})
		})
	})
}

func TestManual(t *testing.T) {
	Convey("Given a manual scheduler", t, func() {
		m := frame.NewManual()
		runs := 0

		Convey("When requesting twice and flushing", func() {
			m.Request(func() { runs++ })
			m.Request(func() { runs++ })
			So(m.Pending(), ShouldBeTrue)
			m.Flush()

			Convey("Then one run happens and both requests are counted", func() {
				So(runs, ShouldEqual, 1)
				So(m.Requests(), ShouldEqual, 2)
				So(m.Pending(), ShouldBeFalse)
			})
		})
	})
}
