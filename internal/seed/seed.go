// Package seed generates synthetic race events with results and photos and
// loads them into a repository.
package seed

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/finishline/internal/adapters/repository"
	"github.com/okian/finishline/internal/domain/results"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
)

// Defaults used when no option overrides them.
const (
	DefaultEvents       = 3
	DefaultRunners      = 200
	DefaultMaxPhotos    = 6
	DefaultPhotoBaseURL = "https://photos.example.com"
	DefaultWorkers      = 4
)

// Share of runners, in percent, with a missing optional value.
const (
	missingNamePct    = 3
	missingAgePct     = 4
	missingGenderPct  = 2
	missingAgePerfPct = 5
)

var (
	cities = []string{
		"City", "Harbor", "Lakeside", "Summit", "Riverside", "Valley", "Coastal", "Forest",
	}
	firstNames = []string{
		"Ana", "Ben", "Cara", "Dev", "Eli", "Fay", "Gus", "Hana", "Ivo", "Jin",
		"Kai", "Lena", "Milo", "Nia", "Omar", "Pia", "Quin", "Rosa", "Sami", "Tara",
	}
	lastNames = []string{
		"Silva", "Okafor", "Lind", "Patel", "Moss", "Novak", "Berg", "Kim", "Costa", "Haddad",
		"Ito", "Jensen", "Keller", "Laine", "Mendes", "Nakamura", "Olsen", "Reyes", "Sato", "Weber",
	}
	// Kilometres per known category.
	distances = map[string]float64{
		"5k":       5,
		"10k":      10,
		"half":     21.0975,
		"marathon": 42.195,
	}
)

// CategoryResults holds the ranked rows of one category.
type CategoryResults struct {
	Category string        `json:"category"`
	Rows     []results.Row `json:"rows"`
}

// RunnerPhotos holds the photos of one bib.
type RunnerPhotos struct {
	Bib  string           `json:"bib"`
	Refs []types.PhotoRef `json:"refs"`
}

// Dataset is one generated event.
type Dataset struct {
	Event   repository.Event  `json:"event"`
	Results []CategoryResults `json:"results"`
	Photos  []RunnerPhotos    `json:"photos"`
}

// Generator builds synthetic datasets.
type Generator struct {
	events       int
	categories   []string
	runners      int
	maxPhotos    int
	photoBaseURL string
	seed         uint64
	workers      int
	year         int
}

// New creates a Generator. Without WithSeed every run differs.
func New(opts ...Option) *Generator {
	g := &Generator{
		events:       DefaultEvents,
		categories:   []string{"marathon", "half", "10k"},
		runners:      DefaultRunners,
		maxPhotos:    DefaultMaxPhotos,
		photoBaseURL: DefaultPhotoBaseURL,
		seed:         uint64(time.Now().UnixNano()),
		workers:      DefaultWorkers,
		year:         time.Now().Year(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.photoBaseURL = strings.TrimRight(g.photoBaseURL, "/")
	return g
}

// Generate builds every event concurrently. The output is ordered by event
// index and depends only on the seed.
func (g *Generator) Generate(ctx context.Context) ([]Dataset, error) {
	out := make([]Dataset, g.events)
	indices := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(g.workers, g.events); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				out[i] = g.Event(i)
			}
		}()
	}

	var err error
feed:
	for i := 0; i < g.events; i++ {
		if ctx.Err() != nil {
			err = fmt.Errorf("generate events: %w", ctx.Err())
			break
		}
		select {
		case <-ctx.Done():
			err = fmt.Errorf("generate events: %w", ctx.Err())
			break feed
		case indices <- i:
		}
	}
	close(indices)
	wg.Wait()

	if err != nil {
		return nil, err
	}
	return out, nil
}

// Event builds the dataset of the event at index.
func (g *Generator) Event(index int) Dataset {
	rng := rand.New(rand.NewPCG(g.seed, uint64(index)))

	city := cities[index%len(cities)]
	id := fmt.Sprintf("%s-marathon-%d", strings.ToLower(city), g.year)
	if index >= len(cities) {
		id += "-" + strconv.Itoa(index/len(cities)+1)
	}

	ds := Dataset{
		Event: repository.Event{
			ID:         id,
			Name:       fmt.Sprintf("%s Marathon %d", city, g.year),
			Date:       fmt.Sprintf("%d-%02d-%02d", g.year, 1+rng.IntN(12), 1+rng.IntN(28)),
			Categories: append([]string(nil), g.categories...),
		},
		Results: make([]CategoryResults, 0, len(g.categories)),
	}

	for ci, category := range g.categories {
		rows := g.category(rng, ci, category)
		ds.Results = append(ds.Results, CategoryResults{Category: category, Rows: rows})
		for _, row := range rows {
			if refs := g.photos(rng, id, row.Bib); len(refs) > 0 {
				ds.Photos = append(ds.Photos, RunnerPhotos{Bib: row.Bib, Refs: refs})
			}
		}
	}
	return ds
}

type finisher struct {
	row     results.Row
	seconds int
}

// category generates the finishers of one category ranked by chip time.
// Bibs are unique within the event.
func (g *Generator) category(rng *rand.Rand, ci int, category string) []results.Row {
	km, ok := distances[strings.ToLower(category)]
	if !ok {
		km = distances["10k"]
	}

	fs := make([]finisher, g.runners)
	for i := range fs {
		row := results.Row{Bib: strconv.Itoa((ci+1)*10000 + i + 1)}

		if rng.IntN(100) >= missingNamePct {
			row.Name = firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
		}
		row.Gender = gender(rng)

		paceSec := 240 + rng.IntN(240)
		if rng.IntN(100) >= missingAgePct {
			age := 18 + rng.IntN(58)
			row.Age = &age
			if age > 40 {
				paceSec += (age - 40) * 2
			}
		}
		if row.Gender == types.GenderFemale {
			paceSec += 15
		}
		row.Division = division(row.Gender, row.Age)

		seconds := int(float64(paceSec) * km)
		row.ChipTime = formatClock(seconds)
		row.AvgPace = fmt.Sprintf("%d:%02d/km", paceSec/60, paceSec%60)

		if rng.IntN(100) >= missingAgePerfPct {
			ap := float64(int((40+rng.Float64()*50)*100)) / 100
			row.AgePerformance = &ap
		}
		fs[i] = finisher{row: row, seconds: seconds}
	}

	sort.SliceStable(fs, func(a, b int) bool { return fs[a].seconds < fs[b].seconds })

	places := make(map[string]int)
	rows := make([]results.Row, len(fs))
	for i, f := range fs {
		f.row.Rank = i + 1
		if f.row.Division != "" {
			places[f.row.Division]++
			place := places[f.row.Division]
			f.row.DivisionPlace = &place
		}
		rows[i] = f.row
	}
	return rows
}

func (g *Generator) photos(rng *rand.Rand, eventID, bib string) []types.PhotoRef {
	n := rng.IntN(g.maxPhotos + 1)
	refs := make([]types.PhotoRef, 0, n)
	for k := 0; k < n; k++ {
		name := uuid.NewSHA1(uuid.NameSpaceURL, []byte(eventID+"/"+bib+"/"+strconv.Itoa(k)))
		refs = append(refs, types.PhotoRef(fmt.Sprintf("%s/%s/%s/%s.jpg", g.photoBaseURL, eventID, bib, name)))
	}
	return refs
}

func gender(rng *rand.Rand) types.Gender {
	switch n := rng.IntN(100); {
	case n < missingGenderPct:
		return ""
	case n < 50:
		return types.GenderMale
	case n < 96:
		return types.GenderFemale
	default:
		return types.GenderNonBinary
	}
}

// division derives an age group such as "F30-39". Runners without gender
// or age have no division.
func division(g types.Gender, age *int) string {
	if g == "" || age == nil {
		return ""
	}
	if *age < 20 {
		return string(g) + "18-19"
	}
	lo := *age / 10 * 10
	return fmt.Sprintf("%s%d-%d", g, lo, lo+9)
}

// formatClock renders seconds as H:MM:SS.
func formatClock(seconds int) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

// Load writes every dataset through w.
func Load(ctx context.Context, w repository.Writer, sets []Dataset) error {
	log := logger.Get().Named("seed")
	for _, ds := range sets {
		if err := w.PutEvent(ctx, ds.Event); err != nil {
			return fmt.Errorf("put event %s: %w", ds.Event.ID, err)
		}
		rows := 0
		for _, cr := range ds.Results {
			if err := w.PutResults(ctx, ds.Event.ID, cr.Category, cr.Rows); err != nil {
				return fmt.Errorf("put results %s/%s: %w", ds.Event.ID, cr.Category, err)
			}
			rows += len(cr.Rows)
		}
		photos := 0
		for _, rp := range ds.Photos {
			if err := w.PutPhotos(ctx, ds.Event.ID, rp.Bib, rp.Refs); err != nil {
				return fmt.Errorf("put photos %s/%s: %w", ds.Event.ID, rp.Bib, err)
			}
			photos += len(rp.Refs)
		}
		log.Info(ctx, "event seeded",
			logger.String("event_id", ds.Event.ID),
			logger.Int("results", rows),
			logger.Int("photos", photos),
		)
	}
	return nil
}

// WriteJSON writes the datasets as one indented JSON document.
func WriteJSON(w io.Writer, sets []Dataset) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sets); err != nil {
		return fmt.Errorf("encode datasets: %w", err)
	}
	return nil
}
