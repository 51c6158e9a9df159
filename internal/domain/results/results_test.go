package results_test

import (
	"testing"

	"github.com/okian/finishline/internal/domain/results"
	"github.com/okian/finishline/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleRows() []results.Row {
	return []results.Row{
		{Bib: "101", Name: "Ana Silva", Rank: 1, Division: "F30-39", Gender: types.GenderFemale},
		{Bib: "202", Name: "Ben Okafor", Rank: 2, Division: "M30-39", Gender: types.GenderMale},
		{Bib: "303", Name: "Cara Lind", Rank: 3, Division: "F30-39", Gender: types.GenderFemale},
		{Bib: "404", Name: "Dev Patel", Rank: 4, Division: "M40-49", Gender: types.GenderMale},
		{Bib: "505", Name: "", Rank: 5},
		{Bib: "606", Name: "Eli Moss", Rank: 6, Division: "M40-49", Gender: types.GenderMale},
	}
}

func TestAnnotate(t *testing.T) {
	Convey("Given rows in rank order", t, func() {
		rows := sampleRows()

		Convey("When annotating with a highlighted bib", func() {
			out := results.Annotate(rows, "404")

			Convey("Then the first row per division is the division winner", func() {
				So(out[0].IsDivisionWinner, ShouldBeTrue)
				So(out[1].IsDivisionWinner, ShouldBeTrue)
				So(out[2].IsDivisionWinner, ShouldBeFalse)
				So(out[3].IsDivisionWinner, ShouldBeTrue)
				So(out[5].IsDivisionWinner, ShouldBeFalse)
			})

			Convey("And a row without a division wins the Unknown division", func() {
				So(out[4].IsDivisionWinner, ShouldBeTrue)
				So(out[4].DivisionOrUnknown(), ShouldEqual, types.UnknownDivision)
			})

			Convey("And only the highlighted bib is the user row", func() {
				So(out[3].IsUserRow, ShouldBeTrue)
				for i, r := range out {
					if i != 3 {
						So(r.IsUserRow, ShouldBeFalse)
					}
				}
			})

			Convey("And the input is left untouched", func() {
				So(len(rows), ShouldEqual, len(out))
				So(rows[0].Bib, ShouldEqual, "101")
			})
		})

		Convey("When annotating without a highlight", func() {
			out := results.Annotate(rows, "")

			Convey("Then no row is the user row", func() {
				for _, r := range out {
					So(r.IsUserRow, ShouldBeFalse)
				}
			})
		})
	})

	Convey("Given rows out of rank order within a division", t, func() {
		rows := []results.Row{
			{Bib: "a", Division: "A", Rank: 5},
			{Bib: "b", Division: "A", Rank: 1},
			{Bib: "c", Division: "B", Rank: 2},
		}

		Convey("Then the first occurrence wins, not the lowest rank", func() {
			out := results.Annotate(rows, "")
			So(out[0].IsDivisionWinner, ShouldBeTrue)
			So(out[1].IsDivisionWinner, ShouldBeFalse)
			So(out[2].IsDivisionWinner, ShouldBeTrue)
			So(results.RankOrdered(rows), ShouldBeFalse)
		})
	})

	Convey("Given ranks around the podium threshold", t, func() {
		rows := []results.Row{{Rank: 1}, {Rank: 2}, {Rank: 3}, {Rank: 4}, {Rank: 40}}

		Convey("Then only ranks 1 to 3 are overall winners", func() {
			out := results.Annotate(rows, "")
			So(out[0].IsOverallWinner, ShouldBeTrue)
			So(out[1].IsOverallWinner, ShouldBeTrue)
			So(out[2].IsOverallWinner, ShouldBeTrue)
			So(out[3].IsOverallWinner, ShouldBeFalse)
			So(out[4].IsOverallWinner, ShouldBeFalse)
		})
	})

	Convey("Given no rows", t, func() {
		Convey("Then annotation yields an empty result", func() {
			So(results.Annotate(nil, "1"), ShouldBeEmpty)
			So(results.RankOrdered(nil), ShouldBeTrue)
		})
	})
}

func TestFilterBySearch(t *testing.T) {
	Convey("Given sample rows", t, func() {
		rows := sampleRows()

		Convey("When the query is blank", func() {
			Convey("Then the rows come back unchanged and in order", func() {
				So(results.FilterBySearch(rows, ""), ShouldResemble, rows)
				So(results.FilterBySearch(rows, "   "), ShouldResemble, rows)
			})
		})

		Convey("When searching by a name fragment in another case", func() {
			out := results.FilterBySearch(rows, "OKAF")

			Convey("Then the matching runner is returned", func() {
				So(len(out), ShouldEqual, 1)
				So(out[0].Bib, ShouldEqual, "202")
			})
		})

		Convey("When searching by bib fragment", func() {
			out := results.FilterBySearch(rows, "0")

			Convey("Then every bib containing it matches, in input order", func() {
				So(len(out), ShouldEqual, 6)
				So(out[0].Bib, ShouldEqual, "101")
			})
		})

		Convey("When nothing matches", func() {
			So(results.FilterBySearch(rows, "zzz"), ShouldBeEmpty)
		})
	})
}

func TestApplyFilters(t *testing.T) {
	Convey("Given sample rows", t, func() {
		rows := sampleRows()

		Convey("When both filters are all", func() {
			out := results.ApplyFilters(rows, results.DefaultFilters())
			So(out, ShouldResemble, rows)
		})

		Convey("When filtering by division", func() {
			out := results.ApplyFilters(rows, results.FilterState{Division: "M40-49", Gender: types.All})

			Convey("Then only that division remains", func() {
				So(len(out), ShouldEqual, 2)
				So(out[0].Bib, ShouldEqual, "404")
				So(out[1].Bib, ShouldEqual, "606")
			})
		})

		Convey("When filtering by gender", func() {
			out := results.ApplyFilters(rows, results.FilterState{Division: types.All, Gender: "F"})

			Convey("Then rows without a gender are excluded", func() {
				So(len(out), ShouldEqual, 2)
			})
		})

		Convey("When filtering by the Unknown sentinel", func() {
			out := results.ApplyFilters(rows, results.FilterState{Division: types.UnknownDivision})

			Convey("Then rows with an absent division never match", func() {
				So(out, ShouldBeEmpty)
			})
		})

		Convey("When applying the same filters twice", func() {
			f := results.FilterState{Division: "F30-39", Gender: "F"}
			once := results.ApplyFilters(rows, f)
			twice := results.ApplyFilters(once, f)

			Convey("Then the result is unchanged", func() {
				So(twice, ShouldResemble, once)
			})
		})
	})
}

func TestUniqueDivisions(t *testing.T) {
	Convey("Given rows with repeated and missing divisions", t, func() {
		Convey("Then divisions are distinct, non-empty and sorted", func() {
			So(results.UniqueDivisions(sampleRows()), ShouldResemble, []string{"F30-39", "M30-39", "M40-49"})
		})

		Convey("Then no rows yield no divisions", func() {
			So(results.UniqueDivisions(nil), ShouldBeEmpty)
		})
	})
}
