// Package anidock provides the public API over the extraction engine: driver
// generation, catalog crawling, episode listing and video location. It can be
// used as a library in other Go projects.
package anidock

import (
	"context"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/discovery"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/driver"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/extract"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/fetch"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/inference"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/models"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/store"
)

// Store is the persistence surface the client depends on. *store.SQLite
// satisfies it; hosts with a remote store inject their own.
type Store interface {
	discovery.Store
	GetDriver(ctx context.Context, id string) (*driver.Driver, error)
	ListDrivers(ctx context.Context) ([]*driver.Driver, error)
	ListAnimes(ctx context.Context, driverID string) ([]*models.Anime, error)
	SaveEpisodes(ctx context.Context, animeID string, episodes []models.Episode) error
	ListEpisodes(ctx context.Context, animeID string) ([]models.Episode, error)
}

var _ Store = (*store.SQLite)(nil)

// Client ties a retrieval strategy, a store and an optional inference
// backend into one engine.
type Client struct {
	fetcher  fetch.Fetcher
	store    Store
	llm      inference.Client
	catalog  *extract.Catalog
	episodes *extract.Episodes
	video    *extract.Video
}

// NewClient builds a client. llm may be nil when driver generation is not
// needed.
func NewClient(f fetch.Fetcher, st Store, llm inference.Client) *Client {
	return &Client{
		fetcher:  f,
		store:    st,
		llm:      llm,
		catalog:  extract.NewCatalog(f),
		episodes: extract.NewEpisodes(f),
		video:    extract.NewVideo(f),
	}
}

// GenerateDriver runs the discovery pipeline against a seed catalog URL and
// returns its report. The generated driver and its initial index are
// persisted before the call returns.
func (c *Client) GenerateDriver(ctx context.Context, catalogURL string, progress extract.Progress) (*discovery.Report, error) {
	pipeline := discovery.NewPipeline(c.fetcher, c.llm, c.store)
	return pipeline.Run(ctx, catalogURL, progress)
}

// Crawl extracts the catalog page with a stored driver and persists the
// records it finds.
func (c *Client) Crawl(ctx context.Context, driverID, pageURL string, progress extract.Progress) (*extract.CrawlResult[models.Anime], error) {
	d, err := c.store.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if pageURL == "" {
		pageURL = d.BaseURL
	}

	result, err := c.catalog.CrawlWithDriver(ctx, pageURL, d, progress)
	if err != nil {
		return nil, err
	}
	for i := range result.Items {
		if err := c.store.SaveAnime(ctx, &result.Items[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Episodes returns the episode list of an anime. Stored episodes are served
// as-is unless refresh forces a re-crawl of the detail page.
func (c *Client) Episodes(ctx context.Context, driverID string, anime *models.Anime, refresh bool, progress extract.Progress) ([]models.Episode, []string, error) {
	if !refresh {
		if cached, err := c.store.ListEpisodes(ctx, anime.ID); err == nil && len(cached) > 0 {
			return cached, nil, nil
		}
	}

	d, err := c.store.GetDriver(ctx, driverID)
	if err != nil {
		return nil, nil, err
	}

	result, err := c.episodes.CrawlEpisodes(ctx, anime.SourceURL, d, progress)
	if err != nil {
		return nil, nil, err
	}
	if err := c.store.SaveEpisodes(ctx, anime.ID, result.Items); err != nil {
		return nil, nil, err
	}
	return result.Items, result.Errors, nil
}

// Video locates the playable source of an episode page.
func (c *Client) Video(ctx context.Context, driverID, episodeURL string) (*models.Video, error) {
	d, err := c.store.GetDriver(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return c.video.ExtractVideoURL(ctx, episodeURL, d)
}

// Drivers lists every stored driver.
func (c *Client) Drivers(ctx context.Context) ([]*driver.Driver, error) {
	return c.store.ListDrivers(ctx)
}

// DeleteDriver removes a driver and everything it indexed.
func (c *Client) DeleteDriver(ctx context.Context, id string) error {
	return c.store.DeleteDriver(ctx, id)
}

// Animes lists one driver's indexed catalog.
func (c *Client) Animes(ctx context.Context, driverID string) ([]*models.Anime, error) {
	return c.store.ListAnimes(ctx, driverID)
}
