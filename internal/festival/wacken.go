package festival

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

type wackenEntry struct {
	Artist struct {
		Title string `json:"title"`
	} `json:"artist"`
}

// wackenCollector reads the JSON band list. Entries whose title is in exclude
// are programme items rather than bands.
type wackenCollector struct {
	fetcher
	url     string
	exclude []string
}

func (c *wackenCollector) Artists(ctx context.Context) ([]string, error) {
	p, ok, err := c.get(ctx, c.url)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []string{}, nil
	}

	var entries []wackenEntry
	if err := json.Unmarshal(p.body, &entries); err != nil {
		return nil, fmt.Errorf("decoding band list: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		title := strings.TrimSpace(e.Artist.Title)
		if title == "" || slices.Contains(c.exclude, title) {
			continue
		}
		names = append(names, title)
	}
	c.logger.Debug("collected line-up", slog.Int("artists", len(names)))
	return names, nil
}
