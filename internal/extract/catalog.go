package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/driver"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/fetch"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/models"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/util"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// coverAttrs are tried in order when reading a cover image; lazy-loading
// sites keep the real URL out of src.
var coverAttrs = []string{"src", "data-src", "data-lazy-src", "data-original"}

// Catalog extracts anime records from a listing page with a driver.
type Catalog struct {
	fetcher fetch.Fetcher
}

// NewCatalog builds a catalog extractor over the given retrieval strategy.
func NewCatalog(f fetch.Fetcher) *Catalog {
	return &Catalog{fetcher: f}
}

// CrawlWithDriver fetches the catalog page and extracts one anime record per
// matched container. A retrieval failure is returned as an error; selector
// misses and per-item failures are recorded in the result instead.
func (c *Catalog) CrawlWithDriver(ctx context.Context, pageURL string, d *driver.Driver, progress Progress) (*CrawlResult[models.Anime], error) {
	html, err := c.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch catalog page")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse catalog page")
	}

	result := &CrawlResult[models.Anime]{Items: []models.Anime{}, Errors: []string{}}

	containers := doc.Find(d.Selectors.AnimeList)
	total := containers.Length()
	if total == 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("selector %q matched no elements on %s", d.Selectors.AnimeList, pageURL))
		return result, nil
	}

	util.Debug("catalog containers matched", "count", total, "url", pageURL)

	containers.Each(func(i int, s *goquery.Selection) {
		anime, err := c.extractItem(s, d)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("item %d: %v", i+1, err))
			progress.Report(i+1, total, "skipped")
			return
		}
		result.Items = append(result.Items, *anime)
		progress.Report(i+1, total, anime.Title)
	})

	return result, nil
}

func (c *Catalog) extractItem(s *goquery.Selection, d *driver.Driver) (*models.Anime, error) {
	title := extractTitle(s, d.Selectors.AnimeTitle)
	if title == "" {
		return nil, errors.New("missing title")
	}

	anchor := resolveAnchor(s, d.Selectors.AnimeURL)
	href, _ := anchor.Attr("href")
	sourceURL := NormalizeURL(href, d.BaseURL)
	if sourceURL == "" {
		return nil, errors.Errorf("missing link for %q", title)
	}

	anime := &models.Anime{
		ID:        uuid.NewString(),
		DriverID:  d.ID,
		Title:     title,
		SourceURL: sourceURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if d.Selectors.AnimeCover != "" {
		if cover := firstAttr(s.Find(d.Selectors.AnimeCover), coverAttrs); cover != "" {
			anime.CoverURL = NormalizeURL(cover, d.BaseURL)
		}
	}
	if d.Selectors.AnimeSynopsis != "" {
		anime.Synopsis = strings.TrimSpace(s.Find(d.Selectors.AnimeSynopsis).First().Text())
	}

	return anime, nil
}

// extractTitle reads the text of the title element, falling back to its
// title attribute when the element has no text content.
func extractTitle(container *goquery.Selection, sel string) string {
	el := container.Find(sel).First()
	if title := strings.TrimSpace(el.Text()); title != "" {
		return title
	}
	if attr, ok := el.Attr("title"); ok {
		return strings.TrimSpace(attr)
	}
	return ""
}

// resolveAnchor returns the element carrying the item link. When the link
// selector is empty or the container is itself the anchor, the container is
// used directly.
func resolveAnchor(container *goquery.Selection, linkSel string) *goquery.Selection {
	if linkSel != "" && goquery.NodeName(container) != "a" {
		return container.Find(linkSel).First()
	}
	return container
}

func firstAttr(s *goquery.Selection, attrs []string) string {
	el := s.First()
	for _, attr := range attrs {
		if v, ok := el.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
