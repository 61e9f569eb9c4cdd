package extract

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/driver"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/fetch"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/models"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/util"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var digitsRe = regexp.MustCompile(`\d+`)

// Episodes extracts episode records from an anime detail page.
type Episodes struct {
	fetcher fetch.Fetcher
}

// NewEpisodes builds an episode extractor over the given retrieval strategy.
func NewEpisodes(f fetch.Fetcher) *Episodes {
	return &Episodes{fetcher: f}
}

// CrawlEpisodes fetches the anime detail page and extracts one episode per
// matched container, sorted by episode number. Same failure semantics as the
// catalog extractor.
func (e *Episodes) CrawlEpisodes(ctx context.Context, animeURL string, d *driver.Driver, progress Progress) (*CrawlResult[models.Episode], error) {
	html, err := e.fetcher.FetchHTML(ctx, animeURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch anime page")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse anime page")
	}

	result := &CrawlResult[models.Episode]{Items: []models.Episode{}, Errors: []string{}}

	containers := doc.Find(d.Selectors.EpisodeList)
	total := containers.Length()
	if total == 0 {
		result.Errors = append(result.Errors,
			fmt.Sprintf("selector %q matched no elements on %s", d.Selectors.EpisodeList, animeURL))
		return result, nil
	}

	util.Debug("episode containers matched", "count", total, "url", animeURL)

	containers.Each(func(i int, s *goquery.Selection) {
		ep, err := e.extractEpisode(s, d, i)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("episode %d: %v", i+1, err))
			progress.Report(i+1, total, "skipped")
			return
		}
		result.Items = append(result.Items, *ep)
		progress.Report(i+1, total, fmt.Sprintf("episode %d", ep.Number))
	})

	sort.SliceStable(result.Items, func(i, j int) bool {
		return result.Items[i].Number < result.Items[j].Number
	})

	return result, nil
}

func (e *Episodes) extractEpisode(s *goquery.Selection, d *driver.Driver, index int) (*models.Episode, error) {
	anchor := resolveAnchor(s, d.Selectors.EpisodeURL)
	href, _ := anchor.Attr("href")
	sourceURL := NormalizeURL(href, d.BaseURL)
	if sourceURL == "" {
		return nil, errors.New("missing episode link")
	}

	ep := &models.Episode{
		ID:        uuid.NewString(),
		Number:    parseEpisodeNumber(s, d.Selectors.EpisodeNumber, index),
		SourceURL: sourceURL,
	}

	if d.Selectors.EpisodeTitle != "" {
		ep.Title = strings.TrimSpace(s.Find(d.Selectors.EpisodeTitle).First().Text())
	}

	return ep, nil
}

// parseEpisodeNumber strips non-digits from the number element's text and
// falls back to the positional index when nothing parses.
func parseEpisodeNumber(container *goquery.Selection, sel string, index int) int {
	text := container.Text()
	if sel != "" {
		text = container.Find(sel).First().Text()
	}

	if numStr := digitsRe.FindString(text); numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return index + 1
}
