package festival

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// document fetches and parses an HTML line-up, decoding it from the charset
// the page declares. It returns nil without an error for non-200 responses.
func (f fetcher) document(ctx context.Context, url string) (*goquery.Document, error) {
	p, ok, err := f.get(ctx, url)
	if err != nil || !ok {
		return nil, err
	}
	r, err := charset.NewReader(bytes.NewReader(p.body), p.contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding line-up html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing line-up html: %w", err)
	}
	return doc, nil
}

// dongCollector reads the band teaser grid. Each teaser links to its band page
// and the link text is the band name.
type dongCollector struct {
	fetcher
	url string
}

func (c *dongCollector) Artists(ctx context.Context) ([]string, error) {
	doc, err := c.document(ctx, c.url)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []string{}, nil
	}

	names := []string{}
	doc.Find("div.bandteaser").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("a").First()
		if link.Length() == 0 {
			return
		}
		if name := strings.TrimSpace(link.Text()); name != "" {
			names = append(names, name)
		}
	})
	c.logger.Debug("collected line-up", slog.Int("artists", len(names)))
	return names, nil
}

// rudeCollector reads article headings of the form "Marduk (SWE)".
type rudeCollector struct {
	fetcher
	url string
}

func (c *rudeCollector) Artists(ctx context.Context) ([]string, error) {
	doc, err := c.document(ctx, c.url)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []string{}, nil
	}

	names := []string{}
	doc.Find("div.cb-article-meta").Each(func(_ int, s *goquery.Selection) {
		link := s.Find("h2").First().Find("a").First()
		if link.Length() == 0 {
			return
		}
		name, _, _ := strings.Cut(strings.TrimSpace(link.Text()), " (")
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	})
	c.logger.Debug("collected line-up", slog.Int("artists", len(names)))
	return names, nil
}
