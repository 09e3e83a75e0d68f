package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sydlexius/festival-scraper/internal/festival"
	"github.com/sydlexius/festival-scraper/internal/pipeline"
	"github.com/sydlexius/festival-scraper/internal/storage"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape, enrich and publish festival line-ups",
		Long: `Collect every configured festival concurrently, identify its artists and
publish <festival>.json. Unmatched artists get an issue; issues for artists
found in this run are closed. A failing festival does not stop the others,
but makes the command exit non-zero.

Usage:
  festival-scraper run                      # all festivals
  festival-scraper run --festival wacken    # only wacken
  festival-scraper run --dry-run            # no issues, no uploads`,
		Args: cobra.NoArgs,
		RunE: runRun,
	}
	cmd.Flags().StringSlice("festival", nil, "festival to process (repeatable, default all)")
	cmd.Flags().Bool("dry-run", false, "identify artists without touching issues or storage")
	return cmd
}

func runRun(cmd *cobra.Command, _ []string) error {
	names, _ := cmd.Flags().GetStringSlice("festival")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	defs, err := selectFestivals(a.cfg.Festivals, names)
	if err != nil {
		return err
	}
	festivals := make([]pipeline.Festival, 0, len(defs))
	for _, def := range defs {
		c, err := festival.NewCollector(def, nil, a.logger)
		if err != nil {
			return err
		}
		festivals = append(festivals, pipeline.Festival{Name: def.Name, Collector: c})
	}

	job, err := a.job(ctx, dryRun)
	if err != nil {
		return err
	}
	return job.Run(ctx, festivals)
}

func (a *app) job(ctx context.Context, dryRun bool) (*pipeline.Job, error) {
	store, err := a.paramStore(ctx)
	if err != nil {
		return nil, err
	}
	catalog, err := a.catalog(ctx, store)
	if err != nil {
		return nil, err
	}

	var (
		tracker   pipeline.Tracker = pipeline.NopTracker{}
		publisher storage.Publisher
	)
	if !dryRun {
		gh, err := a.tracker(ctx, store)
		if err != nil {
			return nil, err
		}
		tracker = gh
		if publisher, err = a.publisher(ctx); err != nil {
			return nil, err
		}
	}

	p := pipeline.New(a.runner(catalog), tracker, a.cfg.Catalog.GenreHints, a.logger)
	return pipeline.NewJob(p, publisher, dryRun, a.logger), nil
}

// selectFestivals returns the definitions named in names, in config order.
// An empty selection means every festival.
func selectFestivals(all []festival.Definition, names []string) ([]festival.Definition, error) {
	if len(names) == 0 {
		return all, nil
	}
	known := make(map[string]bool, len(all))
	for _, d := range all {
		known[d.Name] = true
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if !known[n] {
			return nil, fmt.Errorf("unknown festival %q", n)
		}
		want[n] = true
	}
	var out []festival.Definition
	for _, d := range all {
		if want[d.Name] {
			out = append(out, d)
		}
	}
	return out, nil
}
