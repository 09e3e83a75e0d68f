package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"

	"github.com/sydlexius/festival-scraper/internal/provider"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// tableIdentifier answers from a fixed table; unknown names are not found.
type tableIdentifier struct {
	found   map[string]provider.ArtistIdentification
	err     error
	mu      sync.Mutex
	queried []string
}

func (f *tableIdentifier) RunAll(_ context.Context, queries []provider.ArtistQuery) ([]provider.ArtistIdentification, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]provider.ArtistIdentification, len(queries))
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, q := range queries {
		f.queried = append(f.queried, q.Name)
		if id, ok := f.found[q.Name]; ok {
			id.SearchName = q.Name
			out[i] = id
			continue
		}
		out[i] = provider.NotFound(q.Name)
	}
	return out, nil
}

type recordingTracker struct {
	mu        sync.Mutex
	created   []string
	closed    []string
	createErr error
}

func (r *recordingTracker) CreateIssue(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.created = append(r.created, name)
	return nil
}

func (r *recordingTracker) CloseIssue(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = append(r.closed, name)
	return nil
}

func sampleIdentifier() *tableIdentifier {
	return &tableIdentifier{found: map[string]provider.ArtistIdentification{
		"Bloodbath": {CatalogID: "bb", DisplayName: "Bloodbath", ImageURL: "https://img/bb_320"},
		"Megadeth":  {CatalogID: "md", DisplayName: "Megadeth"},
		"Metal Worx": {
			DisplayName:  "Metal Worx",
			FromOverride: true,
		},
		"Jack & CÃ¶ke": {
			CatalogID:    "jc",
			DisplayName:  "Jack & Cöke",
			FromOverride: true,
		},
	}}
}

func TestEnrich_ReconcilesAndFilters(t *testing.T) {
	ident := sampleIdentifier()
	tracker := &recordingTracker{}
	p := New(ident, tracker, provider.DefaultGenreHints(), testLogger())

	got, err := p.Enrich(context.Background(), []string{"Vader", "", "Bloodbath", "Metal Worx", "Jack & CÃ¶ke", "Megadeth"})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	var names []string
	for _, id := range got {
		names = append(names, id.DisplayName)
	}
	if !slices.Equal(names, []string{"Bloodbath", "Jack & Cöke", "Megadeth"}) {
		t.Errorf("matched = %v", names)
	}
	if slices.Contains(ident.queried, "") {
		t.Error("empty names should be filtered before identification")
	}
	if !slices.Equal(tracker.created, []string{"Vader"}) {
		t.Errorf("created = %v, want [Vader]", tracker.created)
	}
	if !slices.Equal(tracker.closed, []string{"Bloodbath", "Megadeth"}) {
		t.Errorf("closed = %v, want [Bloodbath Megadeth]", tracker.closed)
	}
}

func TestEnrich_Empty(t *testing.T) {
	tracker := &recordingTracker{}
	got, err := New(sampleIdentifier(), tracker, nil, testLogger()).Enrich(context.Background(), []string{"", ""})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
	if len(tracker.created)+len(tracker.closed) != 0 {
		t.Error("expected no tracker activity")
	}
}

func TestEnrich_IdentifyFailure(t *testing.T) {
	ident := &tableIdentifier{err: &provider.ErrCatalogSearch{Query: "Vader", StatusCode: 503}}
	tracker := &recordingTracker{}

	_, err := New(ident, tracker, nil, testLogger()).Enrich(context.Background(), []string{"Vader"})
	var se *provider.ErrCatalogSearch
	if !errors.As(err, &se) {
		t.Fatalf("expected ErrCatalogSearch, got %v", err)
	}
	if len(tracker.created) != 0 {
		t.Error("no tickets should be created when the batch fails")
	}
}

func TestEnrich_TrackerFailure(t *testing.T) {
	tracker := &recordingTracker{createErr: errors.New("boom")}
	_, err := New(sampleIdentifier(), tracker, nil, testLogger()).Enrich(context.Background(), []string{"Vader"})
	if err == nil {
		t.Fatal("expected tracker failure to fail the pipeline")
	}
}

func TestNew_NilTracker(t *testing.T) {
	got, err := New(sampleIdentifier(), nil, nil, testLogger()).Enrich(context.Background(), []string{"Vader", "Bloodbath"})
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("matched = %d, want 1", len(got))
	}
}
