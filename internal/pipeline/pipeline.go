// Package pipeline turns festival line-ups into published artist lists.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sydlexius/festival-scraper/internal/provider"
)

// BatchIdentifier identifies a batch of artists. The result at index i
// belongs to queries[i].
type BatchIdentifier interface {
	RunAll(ctx context.Context, queries []provider.ArtistQuery) ([]provider.ArtistIdentification, error)
}

// Tracker opens tickets for unmatched artists and closes them once resolved.
type Tracker interface {
	CreateIssue(ctx context.Context, artistName string) error
	CloseIssue(ctx context.Context, artistName string) error
}

// NopTracker ignores every ticket operation.
type NopTracker struct{}

// CreateIssue does nothing.
func (NopTracker) CreateIssue(context.Context, string) error { return nil }

// CloseIssue does nothing.
func (NopTracker) CloseIssue(context.Context, string) error { return nil }

// Pipeline enriches raw artist names and reconciles tickets for them.
type Pipeline struct {
	identifier BatchIdentifier
	tracker    Tracker
	genreHints []string
	logger     *slog.Logger
}

// New creates a Pipeline. Every name is searched with genreHints.
func New(identifier BatchIdentifier, tracker Tracker, genreHints []string, logger *slog.Logger) *Pipeline {
	if tracker == nil {
		tracker = NopTracker{}
	}
	return &Pipeline{
		identifier: identifier,
		tracker:    tracker,
		genreHints: genreHints,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
}

// Enrich identifies names and returns the matched records in input order.
// Unmatched artists get a ticket and are left out of the result. Matched
// artists have their ticket closed. Override records never touch the tracker.
func (p *Pipeline) Enrich(ctx context.Context, names []string) ([]provider.ArtistIdentification, error) {
	queries := make([]provider.ArtistQuery, 0, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		queries = append(queries, provider.ArtistQuery{Name: n, GenreHints: p.genreHints})
	}

	ids, err := p.identifier.RunAll(ctx, queries)
	if err != nil {
		return nil, fmt.Errorf("identifying artists: %w", err)
	}

	matched := make([]provider.ArtistIdentification, 0, len(ids))
	var unmatched int
	for _, id := range ids {
		if err := p.reconcile(ctx, id); err != nil {
			return nil, err
		}
		if id.Found() {
			matched = append(matched, id)
		} else {
			unmatched++
		}
	}

	p.logger.Info("enriched artists",
		slog.Int("queried", len(queries)),
		slog.Int("matched", len(matched)),
		slog.Int("unmatched", unmatched))
	return matched, nil
}

func (p *Pipeline) reconcile(ctx context.Context, id provider.ArtistIdentification) error {
	if id.FromOverride {
		return nil
	}
	if id.Found() {
		if err := p.tracker.CloseIssue(ctx, id.SearchName); err != nil {
			return fmt.Errorf("closing ticket for %q: %w", id.SearchName, err)
		}
		return nil
	}
	if err := p.tracker.CreateIssue(ctx, id.SearchName); err != nil {
		return fmt.Errorf("creating ticket for %q: %w", id.SearchName, err)
	}
	return nil
}
