// Package storage publishes festival artifacts.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/sydlexius/festival-scraper/internal/provider"
)

// Publisher stores an artifact under key, replacing any previous version.
type Publisher interface {
	Put(ctx context.Context, key string, data []byte) error
}

// Key returns the artifact key for a festival.
func Key(festival string) string {
	return festival + ".json"
}

type artifactEntry struct {
	ID     string  `json:"id"`
	Artist string  `json:"artist"`
	Image  *string `json:"image"`
}

// Encode renders identified artists as the published artifact, preserving order.
func Encode(ids []provider.ArtistIdentification) ([]byte, error) {
	entries := make([]artifactEntry, 0, len(ids))
	for _, id := range ids {
		e := artifactEntry{ID: id.CatalogID, Artist: id.DisplayName}
		if id.ImageURL != "" {
			img := id.ImageURL
			e.Image = &img
		}
		entries = append(entries, e)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encoding artifact: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
