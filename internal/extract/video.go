package extract

import (
	"context"
	"strings"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/driver"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/fetch"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/models"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/util"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// iframeHints mark iframe src values worth treating as embedded players.
var iframeHints = []string{"player", "embed", "video"}

// Video locates the playable source on an episode page.
type Video struct {
	fetcher fetch.Fetcher
}

// NewVideo builds a video locator over the given retrieval strategy.
func NewVideo(f fetch.Fetcher) *Video {
	return &Video{fetcher: f}
}

// ExtractVideoURL evaluates an ordered strategy cascade against the episode
// page; the first strategy that yields a source wins:
//
//  1. the driver's videoPlayer selector (iframe)
//  2. a document-wide video/source tag
//  3. the driver's external-link selector
//  4. a heuristic iframe search for player-looking src values
//
// When every strategy misses, the descriptor has an empty URL and type
// unknown rather than a hard failure.
func (v *Video) ExtractVideoURL(ctx context.Context, episodeURL string, d *driver.Driver) (*models.Video, error) {
	html, err := v.fetcher.FetchHTML(ctx, episodeURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch episode page")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse episode page")
	}

	return locate(doc, d), nil
}

func locate(doc *goquery.Document, d *driver.Driver) *models.Video {
	if d.Selectors.VideoPlayer != "" {
		if src, ok := doc.Find(d.Selectors.VideoPlayer).First().Attr("src"); ok && src != "" {
			return &models.Video{URL: src, Type: models.VideoTypeIframe}
		}
	}

	if src, ok := doc.Find("video source, video").First().Attr("src"); ok && src != "" {
		return &models.Video{URL: src, Type: models.VideoTypeVideo}
	}

	if d.Selectors.ExternalLinkSelector != "" {
		if href, ok := doc.Find(d.Selectors.ExternalLinkSelector).First().Attr("href"); ok && href != "" {
			return &models.Video{URL: href, Type: models.VideoTypeExternal}
		}
	}

	var heuristic string
	doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, ok := s.Attr("src")
		if !ok {
			return true
		}
		lower := strings.ToLower(src)
		for _, hint := range iframeHints {
			if strings.Contains(lower, hint) {
				heuristic = src
				return false
			}
		}
		return true
	})
	if heuristic != "" {
		return &models.Video{URL: heuristic, Type: models.VideoTypeIframe}
	}

	util.Debug("no playable source found", "driver", d.Name)
	return &models.Video{URL: "", Type: models.VideoTypeUnknown}
}
