// Package discovery infers a complete driver from nothing but a seed URL. It
// chains three language-model stages, validating each stage's selectors
// against freshly fetched HTML before moving on, then indexes the catalog
// with the merged driver. A failed run never leaves a persisted driver
// behind.
package discovery

import (
	"context"
	"strings"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/driver"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/extract"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/fetch"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/inference"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/models"
	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/util"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
)

// Store is the slice of the persistence collaborator the pipeline needs:
// enough to persist the generated driver, roll it back, and store the
// initial index.
type Store interface {
	SaveDriver(ctx context.Context, d *driver.Driver) error
	DeleteDriver(ctx context.Context, id string) error
	SaveAnime(ctx context.Context, a *models.Anime) error
}

// Outcome names the result of a generation run.
type Outcome int

const (
	// OutcomeFailed means the run errored and any persisted driver was
	// rolled back.
	OutcomeFailed Outcome = iota
	// OutcomeIndexed means the driver was generated and the initial index
	// holds at least one record.
	OutcomeIndexed
	// OutcomeIndexedEmpty means the driver was generated and kept, but the
	// initial index came back empty; the selectors likely need manual
	// correction.
	OutcomeIndexedEmpty
)

// Report is the result of a pipeline run.
type Report struct {
	Outcome  Outcome
	Driver   *driver.Driver
	Indexed  int
	Warnings []string
}

// Pipeline wires the retrieval strategy, the inference client and the store
// into the three-stage generation state machine.
type Pipeline struct {
	fetcher fetch.Fetcher
	llm     inference.Client
	store   Store
	catalog *extract.Catalog
}

// NewPipeline builds a pipeline over the given collaborators.
func NewPipeline(f fetch.Fetcher, llm inference.Client, store Store) *Pipeline {
	return &Pipeline{
		fetcher: f,
		llm:     llm,
		store:   store,
		catalog: extract.NewCatalog(f),
	}
}

// Run executes the three stages sequentially against catalogURL, merges the
// selector candidates into one driver, persists it, and synchronously builds
// the initial index. Any error after the driver was persisted deletes it
// again before returning.
func (p *Pipeline) Run(ctx context.Context, catalogURL string, progress extract.Progress) (*Report, error) {
	progress.Report(1, 4, "inferring catalog selectors")
	catalogHTML, catalogCand, err := p.stageCatalog(ctx, catalogURL)
	if err != nil {
		return &Report{Outcome: OutcomeFailed}, err
	}

	progress.Report(2, 4, "inferring episode selectors")
	detailHTML, episodeCand, err := p.stageEpisodes(ctx, catalogURL, catalogHTML, catalogCand)
	if err != nil {
		return &Report{Outcome: OutcomeFailed}, err
	}

	progress.Report(3, 4, "classifying player type")
	playerCand, err := p.stagePlayer(ctx, catalogURL, detailHTML, episodeCand)
	if err != nil {
		return &Report{Outcome: OutcomeFailed}, err
	}

	d, err := mergeDriver(catalogURL, catalogCand, episodeCand, playerCand)
	if err != nil {
		return &Report{Outcome: OutcomeFailed}, err
	}

	progress.Report(4, 4, "indexing catalog")
	return p.persistAndIndex(ctx, catalogURL, d, progress)
}

// stageCatalog fetches the catalog page and asks the model for the catalog
// selector map. The fetched HTML is returned for stage 2's validation.
func (p *Pipeline) stageCatalog(ctx context.Context, catalogURL string) (string, *catalogCandidate, error) {
	html, err := p.fetcher.FetchHTML(ctx, catalogURL)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to fetch catalog page")
	}

	reply, err := p.llm.Complete(ctx, catalogPrompt(catalogURL, sampleHTML(html)))
	if err != nil {
		return "", nil, errors.Wrap(err, "catalog inference failed")
	}

	var cand catalogCandidate
	if err := inference.DecodeJSON(reply, &cand); err != nil {
		return "", nil, errors.Wrap(err, "catalog inference failed")
	}
	if strings.TrimSpace(cand.Selectors.AnimeList) == "" {
		return "", nil, errors.New("catalog inference returned no container selector")
	}

	util.Debug("stage 1 complete", "animeList", cand.Selectors.AnimeList)
	return html, &cand, nil
}

// stageEpisodes validates the catalog candidate against the already-fetched
// HTML, resolves the first anime's detail URL, fetches it and asks the model
// for the episode selectors. The detail HTML is returned for stage 3.
func (p *Pipeline) stageEpisodes(ctx context.Context, catalogURL, catalogHTML string, cand *catalogCandidate) (string, *episodeCandidate, error) {
	origin, err := driver.Origin(catalogURL)
	if err != nil {
		return "", nil, errors.Wrap(err, "invalid catalog URL")
	}

	detailURL := firstItemURL(catalogHTML, cand.Selectors.AnimeList, cand.Selectors.AnimeURL, origin)
	if detailURL == "" {
		// Zero matches means the selectors are already suspect, but the
		// hard failure is left to the fetch below.
		util.Warn("catalog selector matched nothing on the live page", "selector", cand.Selectors.AnimeList)
	}

	html, err := p.fetcher.FetchHTML(ctx, detailURL)
	if err != nil {
		return "", nil, errors.Wrap(err, "failed to fetch anime detail page")
	}

	reply, err := p.llm.Complete(ctx, episodePrompt(detailURL, sampleHTML(html)))
	if err != nil {
		return "", nil, errors.Wrap(err, "episode inference failed")
	}

	var epCand episodeCandidate
	if err := inference.DecodeJSON(reply, &epCand); err != nil {
		return "", nil, errors.Wrap(err, "episode inference failed")
	}
	if strings.TrimSpace(epCand.Selectors.EpisodeList) == "" {
		return "", nil, errors.New("episode inference returned no container selector")
	}

	util.Debug("stage 2 complete", "episodeList", epCand.Selectors.EpisodeList)
	return html, &epCand, nil
}

// stagePlayer resolves the first episode's URL from the detail page, fetches
// it and asks the model whether the page embeds a player or links out.
func (p *Pipeline) stagePlayer(ctx context.Context, catalogURL, detailHTML string, cand *episodeCandidate) (*playerCandidate, error) {
	origin, err := driver.Origin(catalogURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid catalog URL")
	}

	episodeURL := firstItemURL(detailHTML, cand.Selectors.EpisodeList, cand.Selectors.EpisodeURL, origin)
	html, err := p.fetcher.FetchHTML(ctx, episodeURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch episode page")
	}

	reply, err := p.llm.Complete(ctx, playerPrompt(episodeURL, sampleHTML(html)))
	if err != nil {
		return nil, errors.Wrap(err, "player inference failed")
	}

	var plCand playerCandidate
	if err := inference.DecodeJSON(reply, &plCand); err != nil {
		return nil, errors.Wrap(err, "player inference failed")
	}

	util.Debug("stage 3 complete", "playerType", plCand.PlayerType)
	return &plCand, nil
}

// persistAndIndex saves the driver, runs the initial catalog index and
// stores its records. A genuine indexing error rolls the driver back; an
// empty-but-valid index is kept and reported as a warning.
func (p *Pipeline) persistAndIndex(ctx context.Context, catalogURL string, d *driver.Driver, progress extract.Progress) (*Report, error) {
	if err := p.store.SaveDriver(ctx, d); err != nil {
		return &Report{Outcome: OutcomeFailed}, errors.Wrap(err, "failed to persist driver")
	}

	result, err := p.catalog.CrawlWithDriver(ctx, catalogURL, d, progress)
	if err != nil {
		p.rollback(ctx, d)
		return &Report{Outcome: OutcomeFailed}, errors.Wrap(err, "initial indexing failed")
	}

	for i := range result.Items {
		if err := p.store.SaveAnime(ctx, &result.Items[i]); err != nil {
			p.rollback(ctx, d)
			return &Report{Outcome: OutcomeFailed}, errors.Wrap(err, "failed to persist index")
		}
	}

	report := &Report{
		Outcome:  OutcomeIndexed,
		Driver:   d,
		Indexed:  len(result.Items),
		Warnings: result.Errors,
	}
	if len(result.Items) == 0 {
		report.Outcome = OutcomeIndexedEmpty
		report.Warnings = append(report.Warnings,
			"generated driver indexed zero items; selectors may need manual correction")
		util.Warn("driver generated but index is empty", "driver", d.Name)
	}
	return report, nil
}

func (p *Pipeline) rollback(ctx context.Context, d *driver.Driver) {
	if err := p.store.DeleteDriver(ctx, d.ID); err != nil {
		util.Error("rollback failed, orphaned driver left behind", "driver", d.ID, "error", err)
	} else {
		util.Debug("rolled back persisted driver", "driver", d.ID)
	}
}

// firstItemURL parses the page with the container selector and resolves the
// first matched item into an absolute URL. When the link selector is empty
// or the container is itself an anchor, the container is the link.
func firstItemURL(html, containerSel, linkSel, baseOrigin string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	container := doc.Find(containerSel).First()
	if container.Length() == 0 {
		return ""
	}

	link := container
	if linkSel != "" && goquery.NodeName(container) != "a" {
		link = container.Find(linkSel).First()
	}

	href, _ := link.Attr("href")
	return extract.NormalizeURL(href, baseOrigin)
}

// mergeDriver folds the three stages' candidates into one validated driver,
// with the base URL taken from the catalog URL's origin.
func mergeDriver(catalogURL string, cat *catalogCandidate, ep *episodeCandidate, pl *playerCandidate) (*driver.Driver, error) {
	name := strings.TrimSpace(cat.Name)
	if name == "" {
		name = cat.Domain
	}

	sel := driver.Selectors{
		AnimeList:            cat.Selectors.AnimeList,
		AnimeTitle:           cat.Selectors.AnimeTitle,
		AnimeCover:           cat.Selectors.AnimeCover,
		AnimeSynopsis:        cat.Selectors.AnimeSynopsis,
		AnimeURL:             cat.Selectors.AnimeURL,
		AnimePageTitle:       ep.Selectors.AnimePageTitle,
		EpisodeList:          ep.Selectors.EpisodeList,
		EpisodeNumber:        ep.Selectors.EpisodeNumber,
		EpisodeTitle:         ep.Selectors.EpisodeTitle,
		EpisodeURL:           ep.Selectors.EpisodeURL,
		VideoPlayer:          pl.VideoPlayer,
		ExternalLinkSelector: pl.ExternalLinkSelector,
	}

	d, err := driver.New(name, catalogURL, sel)
	if err != nil {
		return nil, errors.Wrap(err, "merged selectors do not form a valid driver")
	}
	d.RequiresExternalLink = pl.external()
	return d, nil
}
