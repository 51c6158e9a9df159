package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/okian/finishline/internal/adapters/repository"
	"github.com/okian/finishline/internal/config"
	"github.com/okian/finishline/internal/seed"
	"github.com/okian/finishline/pkg/logger"
)

const outputFilePermission = 0o600

func main() {
	var (
		events     = flag.Int("events", seed.DefaultEvents, "Number of events to generate")
		runners    = flag.Int("runners", seed.DefaultRunners, "Finishers per category")
		categories = flag.String("categories", "marathon,half,10k", "Comma separated category names")
		maxPhotos  = flag.Int("photos", seed.DefaultMaxPhotos, "Maximum photos per finisher")
		photoBase  = flag.String("photo-base", seed.DefaultPhotoBaseURL, "Base URL of generated photo refs")
		seedValue  = flag.Uint64("seed", 0, "Random seed (0 picks a time based seed)")
		workers    = flag.Int("workers", seed.DefaultWorkers, "Number of concurrent generators")
		output     = flag.String("output", "", "Also write the generated data as JSON to this file")
		dryRun     = flag.Bool("dry-run", false, "Generate without writing to the database")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []seed.Option{
		seed.WithEvents(*events),
		seed.WithRunners(*runners),
		seed.WithCategories(splitList(*categories)...),
		seed.WithMaxPhotos(*maxPhotos),
		seed.WithPhotoBaseURL(*photoBase),
		seed.WithWorkers(*workers),
	}
	if *seedValue != 0 {
		opts = append(opts, seed.WithSeed(*seedValue))
	}

	if err := run(ctx, seed.New(opts...), *output, *dryRun); err != nil {
		logger.Get().Error(ctx, "seeding failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, g *seed.Generator, output string, dryRun bool) error {
	log := logger.Get().Named("seed")

	sets, err := g.Generate(ctx)
	if err != nil {
		return err
	}
	log.Info(ctx, "generated events", logger.Int("count", len(sets)))

	if output != "" {
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, outputFilePermission)
		if err != nil {
			return err
		}
		if err := seed.WriteJSON(f, sets); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Info(ctx, "wrote dataset file", logger.String("output", output))
	}

	if dryRun {
		return nil
	}

	// The database settings come from the same layers as the server.
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	store, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer store.Close()

	return seed.Load(ctx, store, sets)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
