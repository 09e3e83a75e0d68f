package github

import (
	"fmt"
	"strings"
)

// titlePrefix marks tickets opened for artists that need a manual lookup. The
// artist name is everything after it.
const titlePrefix = "Search for ArtistInformation manually: "

// FormatTitle returns the ticket title for an unmatched artist.
func FormatTitle(artistName string) string {
	return titlePrefix + artistName
}

// ParseArtistFromTitle extracts the artist name from a ticket title. It
// reports false for titles that were not produced by FormatTitle.
func ParseArtistFromTitle(title string) (string, bool) {
	name, ok := strings.CutPrefix(title, titlePrefix)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// ticketKey is the case-insensitive correlation key for an artist name.
func ticketKey(artistName string) string {
	return strings.ToLower(artistName)
}

func ticketBody(artistName string) string {
	return fmt.Sprintf("Could not find ArtistInformation for %s. Please look them up manually.", artistName)
}
