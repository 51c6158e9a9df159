package types_test

import (
	"testing"

	"github.com/okian/finishline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseGender(t *testing.T) {
	Convey("Given loosely formatted gender strings", t, func() {
		Convey("Then known spellings map onto the closed set", func() {
			So(types.ParseGender("m"), ShouldEqual, types.GenderMale)
			So(types.ParseGender(" Female "), ShouldEqual, types.GenderFemale)
			So(types.ParseGender("nb"), ShouldEqual, types.GenderNonBinary)
		})

		Convey("Then unknown input yields the empty gender", func() {
			So(types.ParseGender("?"), ShouldEqual, types.Gender(""))
			So(types.ParseGender(""), ShouldEqual, types.Gender(""))
			So(types.Gender("").Valid(), ShouldBeFalse)
		})
	})
}

func TestRefSet(t *testing.T) {
	Convey("Given a ref set", t, func() {
		s := types.NewRefSet("a.jpg")

		Convey("When adding a new and an existing ref", func() {
			added := s.Add("b.jpg")
			again := s.Add("a.jpg")

			Convey("Then only the new ref is reported as added", func() {
				So(added, ShouldBeTrue)
				So(again, ShouldBeFalse)
				So(s.Has("b.jpg"), ShouldBeTrue)
				So(len(s), ShouldEqual, 2)
			})
		})

		Convey("Then a nil set contains nothing", func() {
			var empty types.RefSet
			So(empty.Has("a.jpg"), ShouldBeFalse)
		})
	})
}
