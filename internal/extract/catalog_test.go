package extract

import (
	"context"
	"net/url"
	"testing"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/driver"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/fetch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticFetcher(html string) fetch.Fetcher {
	return fetch.Func(func(ctx context.Context, pageURL string) (string, error) {
		return html, nil
	})
}

func cardDriver() *driver.Driver {
	return &driver.Driver{
		ID:      "drv-1",
		Name:    "Cards",
		BaseURL: "https://site.example",
		Selectors: driver.Selectors{
			AnimeList:   "article.card",
			AnimeTitle:  "h3",
			AnimeURL:    "a",
			EpisodeList: "li.ep",
		},
	}
}

func TestCrawlWithDriverExtractsAllCards(t *testing.T) {
	html := `
		<main>
			<article class="card"><h3>Alpha</h3><a href="/x1">watch</a></article>
			<article class="card"><h3>Beta</h3><a href="/x2">watch</a></article>
			<article class="card"><h3>Gamma</h3><a href="/x3">watch</a></article>
		</main>`

	catalog := NewCatalog(staticFetcher(html))
	result, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", cardDriver(), nil)
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "Alpha", result.Items[0].Title)
	assert.Equal(t, "https://site.example/x1", result.Items[0].SourceURL)
	assert.Equal(t, "https://site.example/x3", result.Items[2].SourceURL)
	for _, item := range result.Items {
		assert.Equal(t, "drv-1", item.DriverID)
		assert.NotEmpty(t, item.ID)
	}
}

func TestCrawlWithDriverSkipsItemMissingTitle(t *testing.T) {
	html := `
		<article class="card"><h3>Alpha</h3><a href="/x1">watch</a></article>
		<article class="card"><a href="/x2">watch</a></article>
		<article class="card"><h3>Gamma</h3><a href="/x3">watch</a></article>`

	catalog := NewCatalog(staticFetcher(html))
	result, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", cardDriver(), nil)
	require.NoError(t, err)

	assert.Len(t, result.Items, 2)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "missing title")
}

func TestCrawlWithDriverSelectorMissIsSoft(t *testing.T) {
	catalog := NewCatalog(staticFetcher(`<div>nothing to see</div>`))
	result, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", cardDriver(), nil)
	require.NoError(t, err)

	assert.Empty(t, result.Items)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "article.card")
}

func TestCrawlWithDriverIsIdempotent(t *testing.T) {
	html := `
		<article class="card"><h3>Alpha</h3><a href="/x1">watch</a></article>
		<article class="card"><h3>Beta</h3><a href="/x2">watch</a></article>`

	catalog := NewCatalog(staticFetcher(html))
	first, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", cardDriver(), nil)
	require.NoError(t, err)
	second, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", cardDriver(), nil)
	require.NoError(t, err)

	require.Len(t, second.Items, len(first.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].Title, second.Items[i].Title)
		assert.Equal(t, first.Items[i].SourceURL, second.Items[i].SourceURL)
		// Record ids are random per run.
		assert.NotEqual(t, first.Items[i].ID, second.Items[i].ID)
	}
}

func TestCrawlWithDriverContainsOriginToDriver(t *testing.T) {
	// A relay rewrote the absolute links to its own host.
	html := `
		<article class="card">
			<h3>Alpha</h3>
			<a href="https://relay.example/anime/1">watch</a>
			<img class="cover" src="https://relay.example/covers/1.jpg">
		</article>`

	d := cardDriver()
	d.Selectors.AnimeCover = "img.cover"

	catalog := NewCatalog(staticFetcher(html))
	result, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", d, nil)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	for _, raw := range []string{result.Items[0].SourceURL, result.Items[0].CoverURL} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, "https://site.example", u.Scheme+"://"+u.Host)
	}
}

func TestCrawlWithDriverContainerAsAnchor(t *testing.T) {
	html := `
		<a class="card" href="/x1"><h3>Alpha</h3></a>
		<a class="card" href="/x2"><h3>Beta</h3></a>`

	d := cardDriver()
	d.Selectors.AnimeList = "a.card"
	d.Selectors.AnimeURL = ""

	catalog := NewCatalog(staticFetcher(html))
	result, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", d, nil)
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.Equal(t, "https://site.example/x1", result.Items[0].SourceURL)
}

func TestCrawlWithDriverTitleAttributeFallback(t *testing.T) {
	html := `<article class="card"><h3 title="Alpha"></h3><a href="/x1">watch</a></article>`

	catalog := NewCatalog(staticFetcher(html))
	result, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", cardDriver(), nil)
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "Alpha", result.Items[0].Title)
}

func TestCrawlWithDriverLazyCoverFallback(t *testing.T) {
	html := `
		<article class="card">
			<h3>Alpha</h3><a href="/x1">watch</a>
			<img class="cover" data-src="/covers/1.jpg">
		</article>`

	d := cardDriver()
	d.Selectors.AnimeCover = "img.cover"

	catalog := NewCatalog(staticFetcher(html))
	result, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", d, nil)
	require.NoError(t, err)

	require.Len(t, result.Items, 1)
	assert.Equal(t, "https://site.example/covers/1.jpg", result.Items[0].CoverURL)
}

func TestCrawlWithDriverReportsProgress(t *testing.T) {
	html := `
		<article class="card"><h3>Alpha</h3><a href="/x1">watch</a></article>
		<article class="card"><h3>Beta</h3><a href="/x2">watch</a></article>`

	var calls []int
	progress := func(current, total int, status string) {
		assert.Equal(t, 2, total)
		calls = append(calls, current)
	}

	catalog := NewCatalog(staticFetcher(html))
	_, err := catalog.CrawlWithDriver(context.Background(), "https://site.example/catalog", cardDriver(), progress)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)
}
