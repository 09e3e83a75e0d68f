package spotify

import (
	"strings"

	"github.com/sydlexius/festival-scraper/internal/provider"
)

// minImageSide is the smallest width or height an image needs to be usable.
const minImageSide = 300

// match picks the first candidate that has the exact name, an acceptable
// genre and a usable image. hadCandidates is false when the name and genre
// filters leave nothing to choose from.
func match(name string, genreHints []string, items []artistItem) (id provider.ArtistIdentification, hadCandidates bool) {
	candidates := filterByGenre(genreHints, filterByName(name, items))
	if len(candidates) == 0 {
		return provider.NotFound(name), false
	}

	for _, c := range candidates {
		img, ok := pickImage(c.Images)
		if !ok {
			continue
		}
		return provider.ArtistIdentification{
			CatalogID:   c.ID,
			DisplayName: c.Name,
			SearchName:  name,
			ImageURL:    img.URL,
		}, true
	}
	return provider.NotFound(name), true
}

// filterByName keeps items whose name equals name ignoring case.
func filterByName(name string, items []artistItem) []artistItem {
	var out []artistItem
	for _, it := range items {
		if strings.EqualFold(it.Name, name) {
			out = append(out, it)
		}
	}
	return out
}

// filterByGenre keeps items without genres and items with at least one genre
// containing one of the hints, ignoring case.
func filterByGenre(hints []string, items []artistItem) []artistItem {
	var out []artistItem
	for _, it := range items {
		if len(it.Genres) == 0 || genresMatch(hints, it.Genres) {
			out = append(out, it)
		}
	}
	return out
}

func genresMatch(hints, genres []string) bool {
	for _, g := range genres {
		g = strings.ToLower(g)
		for _, h := range hints {
			if strings.Contains(g, strings.ToLower(h)) {
				return true
			}
		}
	}
	return false
}

// pickImage returns the smallest image with a side of at least minImageSide.
// Images arrive largest first, so the list is scanned from the end.
func pickImage(images []image) (image, bool) {
	for i := len(images) - 1; i >= 0; i-- {
		if images[i].Width >= minImageSide || images[i].Height >= minImageSide {
			return images[i], true
		}
	}
	return image{}, false
}
