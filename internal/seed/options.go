package seed

// Option configures a Generator.
type Option func(*Generator)

// WithEvents sets how many events are generated.
func WithEvents(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.events = n
		}
	}
}

// WithCategories sets the category names of every event. Known distances
// (5k, 10k, half, marathon) drive realistic finish times.
func WithCategories(categories ...string) Option {
	return func(g *Generator) {
		if len(categories) > 0 {
			g.categories = append([]string(nil), categories...)
		}
	}
}

// WithRunners sets the number of finishers per category.
func WithRunners(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.runners = n
		}
	}
}

// WithMaxPhotos sets the upper bound of photos per finisher.
func WithMaxPhotos(n int) Option {
	return func(g *Generator) {
		if n >= 0 {
			g.maxPhotos = n
		}
	}
}

// WithPhotoBaseURL sets the prefix of generated photo URLs.
func WithPhotoBaseURL(base string) Option {
	return func(g *Generator) {
		if base != "" {
			g.photoBaseURL = base
		}
	}
}

// WithSeed fixes the random source so repeated runs yield the same data.
func WithSeed(seed uint64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithWorkers sets how many events are generated concurrently.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// WithYear sets the year used in event names and dates.
func WithYear(year int) Option {
	return func(g *Generator) {
		if year > 0 {
			g.year = year
		}
	}
}
