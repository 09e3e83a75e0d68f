// Package festival collects the artist line-ups published by festival sites.
package festival

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Source names a line-up format.
type Source string

// Known sources.
const (
	SourceWacken Source = "wacken"
	SourceDong   Source = "dong"
	SourceRude   Source = "rude"
	SourceStatic Source = "static"
)

// Default line-up locations per source.
const (
	DefaultWackenURL = "https://www.wacken.com/fileadmin/Json/bandlist-concert.json"
	DefaultDongURL   = "https://www.dongopenair.de/de/bands/index"
	DefaultRudeURL   = "https://www.rockunterdeneichen.de/bands/"
)

// ValidSource reports whether s is a known source.
func ValidSource(s Source) bool {
	switch s {
	case SourceWacken, SourceDong, SourceRude, SourceStatic:
		return true
	}
	return false
}

// Collector returns the raw artist names of one festival line-up.
type Collector interface {
	Artists(ctx context.Context) ([]string, error)
}

// Definition describes a configured festival.
type Definition struct {
	Name    string   `yaml:"name"`
	Source  Source   `yaml:"source"`
	URL     string   `yaml:"url"`
	Exclude []string `yaml:"exclude"`
	Artists []string `yaml:"artists"`
}

// NewCollector builds the collector for def. Artists listed in def are
// appended to whatever the source yields.
func NewCollector(def Definition, httpClient *http.Client, logger *slog.Logger) (Collector, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger = logger.With(slog.String("festival", def.Name), slog.String("source", string(def.Source)))
	f := fetcher{httpClient: httpClient, logger: logger}

	var c Collector
	switch def.Source {
	case SourceWacken:
		exclude := def.Exclude
		if exclude == nil {
			exclude = []string{"Metal Disco", "Metal Yoga"}
		}
		c = &wackenCollector{fetcher: f, url: orDefault(def.URL, DefaultWackenURL), exclude: exclude}
	case SourceDong:
		c = &dongCollector{fetcher: f, url: orDefault(def.URL, DefaultDongURL)}
	case SourceRude:
		c = &rudeCollector{fetcher: f, url: orDefault(def.URL, DefaultRudeURL)}
	case SourceStatic:
		return Static(def.Artists), nil
	default:
		return nil, fmt.Errorf("unknown festival source %q", def.Source)
	}

	if len(def.Artists) == 0 {
		return c, nil
	}
	return withExtra{Collector: c, extra: def.Artists}, nil
}

// Static is a fixed line-up.
type Static []string

// Artists returns the list with surrounding whitespace trimmed.
func (s Static) Artists(context.Context) ([]string, error) {
	return TrimNames(s), nil
}

type withExtra struct {
	Collector
	extra []string
}

func (w withExtra) Artists(ctx context.Context) ([]string, error) {
	names, err := w.Collector.Artists(ctx)
	if err != nil {
		return nil, err
	}
	return append(names, TrimNames(w.extra)...), nil
}

// TrimNames trims whitespace from every name and drops the ones left empty.
func TrimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

type fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// page is a fetched line-up document.
type page struct {
	body        []byte
	contentType string
}

// get fetches url. It returns ok=false without an error when the site answers
// with anything other than 200, which callers treat as an empty line-up.
func (f fetcher) get(ctx context.Context, url string) (p page, ok bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return page{}, false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "festival-scraper/1.0")

	resp, err := f.httpClient.Do(req) //nolint:gosec // URL comes from operator config
	if err != nil {
		return page{}, false, fmt.Errorf("fetching line-up: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		f.logger.Warn("line-up unavailable",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode))
		return page{}, false, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8*1024*1024))
	if err != nil {
		return page{}, false, fmt.Errorf("reading line-up: %w", err)
	}
	return page{body: body, contentType: resp.Header.Get("Content-Type")}, true, nil
}
