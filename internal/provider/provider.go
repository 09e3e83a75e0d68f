package provider

import (
	"context"
	"fmt"
)

// ArtistQuery is a single artist name to identify along with the genres that
// disambiguate it from namesakes in the catalog.
type ArtistQuery struct {
	Name       string
	GenreHints []string
}

// ArtistIdentification is the outcome of matching one ArtistQuery.
//
// CatalogID is empty exactly when no confident match was found. SearchName is
// always the query name as passed in and is the key used to correlate tickets.
type ArtistIdentification struct {
	CatalogID   string `json:"catalog_id,omitempty" yaml:"catalog_id,omitempty"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	SearchName  string `json:"search_name" yaml:"-"`
	ImageURL    string `json:"image_url,omitempty" yaml:"image_url,omitempty"`

	// FromOverride marks records served from the override table. Those are
	// authoritative and never touch the issue tracker.
	FromOverride bool `json:"-" yaml:"-"`
}

// Found reports whether the catalog (or an override) produced an identifier.
func (a ArtistIdentification) Found() bool { return a.CatalogID != "" }

// NotFound builds the unmatched record for name.
func NotFound(name string) ArtistIdentification {
	return ArtistIdentification{
		DisplayName: name,
		SearchName:  name,
	}
}

// Identifier resolves an artist name to an identification record. A missing
// match is reported in-band; errors are reserved for transport and API failures.
type Identifier interface {
	Identify(ctx context.Context, name string, genreHints []string) (ArtistIdentification, error)
}

// ErrAuth indicates the catalog token exchange failed. The run cannot continue.
type ErrAuth struct {
	StatusCode int
	Body       string
	Cause      error
}

func (e *ErrAuth) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("catalog token exchange failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("catalog token exchange failed: %v", e.Cause)
}

func (e *ErrAuth) Unwrap() error { return e.Cause }

// ErrCatalogSearch indicates the catalog rejected a search request.
type ErrCatalogSearch struct {
	Query      string
	StatusCode int
	Body       string
}

func (e *ErrCatalogSearch) Error() string {
	return fmt.Sprintf("catalog search for %q returned status %d", e.Query, e.StatusCode)
}

// DefaultGenreHints are the genres accepted when disambiguating festival artists.
func DefaultGenreHints() []string {
	return []string{"Metal", "Rock", "Core", "Heavy"}
}
