package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sydlexius/festival-scraper/internal/festival"
	"github.com/sydlexius/festival-scraper/internal/storage"
)

// Festival pairs a festival name with the collector for its line-up.
type Festival struct {
	Name      string
	Collector festival.Collector
}

// Job processes festivals and publishes one artifact per festival.
type Job struct {
	pipeline  *Pipeline
	publisher storage.Publisher
	dryRun    bool
	logger    *slog.Logger
}

// NewJob creates a Job. With dryRun set nothing is published.
func NewJob(p *Pipeline, publisher storage.Publisher, dryRun bool, logger *slog.Logger) *Job {
	return &Job{
		pipeline:  p,
		publisher: publisher,
		dryRun:    dryRun,
		logger:    logger,
	}
}

// Run processes every festival concurrently. A failing festival leaves its
// artifact untouched and does not stop the others. All failures are joined.
func (j *Job) Run(ctx context.Context, festivals []Festival) error {
	runID := uuid.NewString()
	logger := j.logger.With(slog.String("run_id", runID))
	start := time.Now()
	logger.Info("run started", slog.Int("festivals", len(festivals)), slog.Bool("dry_run", j.dryRun))

	errs := make([]error, len(festivals))
	var g errgroup.Group
	for i, f := range festivals {
		g.Go(func() error {
			flog := logger.With(slog.String("festival", f.Name))
			if err := j.process(ctx, f, flog); err != nil {
				flog.Error("festival failed", slog.String("error", err.Error()))
				errs[i] = fmt.Errorf("festival %s: %w", f.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	err := errors.Join(errs...)
	logger.Info("run finished",
		slog.Duration("elapsed", time.Since(start)),
		slog.Bool("ok", err == nil))
	return err
}

func (j *Job) process(ctx context.Context, f Festival, logger *slog.Logger) error {
	names, err := f.Collector.Artists(ctx)
	if err != nil {
		return fmt.Errorf("collecting line-up: %w", err)
	}
	logger.Info("line-up collected", slog.Int("artists", len(names)))

	matched, err := j.pipeline.Enrich(ctx, names)
	if err != nil {
		return err
	}

	data, err := storage.Encode(matched)
	if err != nil {
		return err
	}
	key := storage.Key(f.Name)
	if j.dryRun {
		logger.Info("dry run, skipping publish",
			slog.String("key", key),
			slog.String("size", humanize.Bytes(uint64(len(data)))))
		return nil
	}

	if err := j.publisher.Put(ctx, key, data); err != nil {
		return fmt.Errorf("publishing %s: %w", key, err)
	}
	logger.Info("artifact published",
		slog.String("key", key),
		slog.Int("artists", len(matched)),
		slog.String("size", humanize.Bytes(uint64(len(data)))))
	return nil
}
