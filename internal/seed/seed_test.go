package seed_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/finishline/internal/adapters/repository"
	"github.com/okian/finishline/internal/seed"
	"github.com/okian/finishline/pkg/logger"
)

func newGenerator(opts ...seed.Option) *seed.Generator {
	base := []seed.Option{
		seed.WithSeed(7),
		seed.WithYear(2024),
		seed.WithEvents(2),
		seed.WithRunners(40),
		seed.WithCategories("marathon", "5k"),
	}
	return seed.New(append(base, opts...)...)
}

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		g := newGenerator()

		Convey("When generating datasets", func() {
			sets, err := g.Generate(context.Background())
			So(err, ShouldBeNil)

			Convey("Then every event has stable metadata", func() {
				So(len(sets), ShouldEqual, 2)
				So(sets[0].Event.ID, ShouldEqual, "city-marathon-2024")
				So(sets[1].Event.ID, ShouldEqual, "harbor-marathon-2024")
				So(sets[0].Event.Categories, ShouldResemble, []string{"marathon", "5k"})
				So(sets[0].Event.Date, ShouldStartWith, "2024-")
			})

			Convey("And rows are ranked by chip time with unique bibs", func() {
				bibs := map[string]bool{}
				for _, cr := range sets[0].Results {
					So(len(cr.Rows), ShouldEqual, 40)
					for i, row := range cr.Rows {
						So(row.Rank, ShouldEqual, i+1)
						So(bibs[row.Bib], ShouldBeFalse)
						bibs[row.Bib] = true
						if i > 0 {
							So(len(row.ChipTime), ShouldBeGreaterThanOrEqualTo, len(cr.Rows[i-1].ChipTime))
						}
					}
				}
			})

			Convey("And divisions match gender and age with running places", func() {
				places := map[string]int{}
				for _, row := range sets[0].Results[0].Rows {
					if row.Division == "" {
						So(row.Gender == "" || row.Age == nil, ShouldBeTrue)
						So(row.DivisionPlace, ShouldBeNil)
						continue
					}
					So(row.Division, ShouldStartWith, string(row.Gender))
					places[row.Division]++
					So(*row.DivisionPlace, ShouldEqual, places[row.Division])
				}
			})

			Convey("And marathon finishers are slower than 5k finishers", func() {
				So(sets[0].Results[0].Rows[0].ChipTime, ShouldBeGreaterThan, sets[0].Results[1].Rows[0].ChipTime)
			})

			Convey("And photo refs live under their event and bib", func() {
				So(sets[0].Photos, ShouldNotBeEmpty)
				for _, rp := range sets[0].Photos {
					So(len(rp.Refs), ShouldBeBetweenOrEqual, 1, seed.DefaultMaxPhotos)
					for _, ref := range rp.Refs {
						So(string(ref), ShouldStartWith, seed.DefaultPhotoBaseURL+"/city-marathon-2024/"+rp.Bib+"/")
						So(string(ref), ShouldEndWith, ".jpg")
					}
				}
			})

			Convey("And the same seed reproduces the same data", func() {
				again, err := newGenerator(seed.WithWorkers(1)).Generate(context.Background())
				So(err, ShouldBeNil)
				So(again, ShouldResemble, sets)
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			sets, err := newGenerator(seed.WithEvents(50)).Generate(ctx)

			Convey("Then generation fails with the context error", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(sets, ShouldBeNil)
			})
		})
	})

	Convey("Given more events than city names", t, func() {
		g := newGenerator(seed.WithEvents(9), seed.WithRunners(1), seed.WithMaxPhotos(0))

		Convey("Then event IDs stay unique", func() {
			sets, err := g.Generate(context.Background())
			So(err, ShouldBeNil)
			So(sets[8].Event.ID, ShouldEqual, "city-marathon-2024-2")
			So(sets[8].Photos, ShouldBeEmpty)
		})
	})
}

func TestLoadAndWriteJSON(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given generated datasets", t, func() {
		ctx := context.Background()
		sets, err := newGenerator(seed.WithEvents(1)).Generate(ctx)
		So(err, ShouldBeNil)

		Convey("When loading them into a store", func() {
			store, err := repository.Open(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "seed.db"))
			So(err, ShouldBeNil)
			defer store.Close()

			So(seed.Load(ctx, store, sets), ShouldBeNil)

			Convey("Then the store serves them back", func() {
				ev, err := store.Event(ctx, "city-marathon-2024")
				So(err, ShouldBeNil)
				So(ev.Categories, ShouldResemble, []string{"marathon", "5k"})

				rows, err := store.Results(ctx, "city-marathon-2024", "5k")
				So(err, ShouldBeNil)
				So(rows, ShouldResemble, sets[0].Results[1].Rows)

				rp := sets[0].Photos[0]
				refs, err := store.Photos(ctx, "city-marathon-2024", rp.Bib)
				So(err, ShouldBeNil)
				So(refs, ShouldResemble, rp.Refs)
			})
		})

		Convey("When writing them as JSON", func() {
			var buf bytes.Buffer
			So(seed.WriteJSON(&buf, sets), ShouldBeNil)

			Convey("Then the document decodes to the same datasets", func() {
				So(strings.HasPrefix(buf.String(), "[\n"), ShouldBeTrue)
				var decoded []seed.Dataset
				So(json.Unmarshal(buf.Bytes(), &decoded), ShouldBeNil)
				So(decoded, ShouldResemble, sets)
			})
		})
	})
}
