package anidock

import (
	"context"
	"testing"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/driver"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/fetch"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/models"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	drivers  map[string]*driver.Driver
	animes   map[string][]*models.Anime
	episodes map[string][]models.Episode
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		drivers:  map[string]*driver.Driver{},
		animes:   map[string][]*models.Anime{},
		episodes: map[string][]models.Episode{},
	}
}

func (f *fakeStore) SaveDriver(ctx context.Context, d *driver.Driver) error {
	f.drivers[d.ID] = d
	return nil
}

func (f *fakeStore) DeleteDriver(ctx context.Context, id string) error {
	delete(f.drivers, id)
	return nil
}

func (f *fakeStore) GetDriver(ctx context.Context, id string) (*driver.Driver, error) {
	d, ok := f.drivers[id]
	if !ok {
		return nil, errors.New("driver not found")
	}
	return d, nil
}

func (f *fakeStore) ListDrivers(ctx context.Context) ([]*driver.Driver, error) {
	var out []*driver.Driver
	for _, d := range f.drivers {
		out = append(out, d)
	}
	return out, nil
}

func (f *fakeStore) SaveAnime(ctx context.Context, a *models.Anime) error {
	f.animes[a.DriverID] = append(f.animes[a.DriverID], a)
	return nil
}

func (f *fakeStore) ListAnimes(ctx context.Context, driverID string) ([]*models.Anime, error) {
	return f.animes[driverID], nil
}

func (f *fakeStore) SaveEpisodes(ctx context.Context, animeID string, episodes []models.Episode) error {
	f.episodes[animeID] = episodes
	return nil
}

func (f *fakeStore) ListEpisodes(ctx context.Context, animeID string) ([]models.Episode, error) {
	return f.episodes[animeID], nil
}

func countingFetcher(html string, hits *int) fetch.Fetcher {
	return fetch.Func(func(ctx context.Context, pageURL string) (string, error) {
		*hits++
		return html, nil
	})
}

func seedDriver(t *testing.T, st *fakeStore) *driver.Driver {
	t.Helper()
	d, err := driver.New("Cards", "https://site.example", driver.Selectors{
		AnimeList:   "article.card",
		AnimeTitle:  "h3",
		AnimeURL:    "a",
		EpisodeList: "li.ep",
		EpisodeURL:  "a",
	})
	require.NoError(t, err)
	require.NoError(t, st.SaveDriver(context.Background(), d))
	return d
}

func TestCrawlPersistsResults(t *testing.T) {
	html := `<article class="card"><h3>Alpha</h3><a href="/anime/1">view</a></article>`
	var hits int

	st := newFakeStore()
	d := seedDriver(t, st)
	client := NewClient(countingFetcher(html, &hits), st, nil)

	result, err := client.Crawl(context.Background(), d.ID, "", nil)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)
	assert.Len(t, st.animes[d.ID], 1)
}

func TestEpisodesServedFromStoreUnlessRefresh(t *testing.T) {
	html := `<li class="ep"><a href="/watch/1">Episode 1</a></li>`
	var hits int

	st := newFakeStore()
	d := seedDriver(t, st)
	client := NewClient(countingFetcher(html, &hits), st, nil)

	anime := &models.Anime{ID: "a-1", DriverID: d.ID, Title: "Alpha", SourceURL: "https://site.example/anime/1"}

	// First call has nothing cached and crawls.
	episodes, _, err := client.Episodes(context.Background(), d.ID, anime, false, nil)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, 1, hits)

	// Second call is a cache hit; no fetch happens.
	episodes, _, err = client.Episodes(context.Background(), d.ID, anime, false, nil)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, 1, hits)

	// Refresh forces a re-crawl.
	_, _, err = client.Episodes(context.Background(), d.ID, anime, true, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)
}

func TestVideoUsesStoredDriver(t *testing.T) {
	html := `<a class="watch" href="https://ext.example/1">Watch</a>`
	var hits int

	st := newFakeStore()
	d := seedDriver(t, st)
	d.Selectors.ExternalLinkSelector = "a.watch"

	client := NewClient(countingFetcher(html, &hits), st, nil)
	video, err := client.Video(context.Background(), d.ID, "https://site.example/watch/1")
	require.NoError(t, err)

	assert.Equal(t, models.VideoTypeExternal, video.Type)
	assert.Equal(t, "https://ext.example/1", video.URL)
}

func TestCrawlUnknownDriver(t *testing.T) {
	client := NewClient(countingFetcher("", new(int)), newFakeStore(), nil)
	_, err := client.Crawl(context.Background(), "missing", "", nil)
	assert.Error(t, err)
}
