package provider

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Runner identifies many artists concurrently. In-flight work is capped at a
// fixed concurrency and request starts are gated by an Admission policy.
type Runner struct {
	identifier  Identifier
	admission   *Admission
	concurrency int
	logger      *slog.Logger
}

// NewRunner creates a Runner over identifier.
func NewRunner(identifier Identifier, concurrency int, perSecond float64, logger *slog.Logger) *Runner {
	return newRunner(identifier, concurrency, NewAdmission(perSecond), logger)
}

func newRunner(identifier Identifier, concurrency int, admission *Admission, logger *slog.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		identifier:  identifier,
		admission:   admission,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "fanout")),
	}
}

// RunAll identifies every query. The result at index i belongs to queries[i].
// The first failure cancels the remaining work and is returned.
func (r *Runner) RunAll(ctx context.Context, queries []ArtistQuery) ([]ArtistIdentification, error) {
	if len(queries) == 0 {
		return []ArtistIdentification{}, nil
	}

	results := make([]ArtistIdentification, len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, q := range queries {
		g.Go(func() error {
			if err := r.admission.Wait(gctx); err != nil {
				return fmt.Errorf("waiting for admission: %w", err)
			}
			id, err := r.identifier.Identify(gctx, q.Name, q.GenreHints)
			if err != nil {
				return fmt.Errorf("identifying %q: %w", q.Name, err)
			}
			results[i] = id
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("batch completed", slog.Int("queries", len(queries)))
	return results, nil
}
