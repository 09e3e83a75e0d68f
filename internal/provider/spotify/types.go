package spotify

// searchResponse is the JSON response from the search endpoint with type=artist.
type searchResponse struct {
	Artists struct {
		Items []artistItem `json:"items"`
		Total int          `json:"total"`
	} `json:"artists"`
}

// artistItem is a single artist entry in a search response.
type artistItem struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Images     []image  `json:"images"`
	Popularity int      `json:"popularity"`
	URI        string   `json:"uri"`
}

// image is one rendition of an artist picture. The catalog lists them
// largest first.
type image struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
