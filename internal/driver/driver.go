// Package driver defines the declarative selector map that describes how a
// catalog site is scraped.
package driver

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Selectors groups the CSS selectors of a driver by semantic field.
//
// AnimeList and EpisodeList are container selectors; every other selector in
// their group is evaluated relative to a matched container element, never
// against the whole document. An empty AnimeURL/EpisodeURL means the
// container itself is the anchor element.
type Selectors struct {
	// Catalog page
	AnimeList     string `json:"animeList"`
	AnimeTitle    string `json:"animeTitle"`
	AnimeCover    string `json:"animeCover,omitempty"`
	AnimeSynopsis string `json:"animeSynopsis,omitempty"`
	AnimeURL      string `json:"animeUrl,omitempty"`

	// Anime detail page
	AnimePageTitle string `json:"animePageTitle,omitempty"`
	EpisodeList    string `json:"episodeList"`
	EpisodeNumber  string `json:"episodeNumber,omitempty"`
	EpisodeTitle   string `json:"episodeTitle,omitempty"`
	EpisodeURL     string `json:"episodeUrl,omitempty"`

	// Episode page
	VideoPlayer          string `json:"videoPlayer,omitempty"`
	ExternalLinkSelector string `json:"externalLinkSelector,omitempty"`
}

// Driver is a named selector map bound to one site.
type Driver struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Domain               string    `json:"domain"`
	BaseURL              string    `json:"baseUrl"`
	Selectors            Selectors `json:"selectors"`
	RequiresExternalLink bool      `json:"requiresExternalLink"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// New builds a validated driver. BaseURL is reduced to its origin and the
// domain is derived from it when empty.
func New(name, baseURL string, sel Selectors) (*Driver, error) {
	origin, err := Origin(baseURL)
	if err != nil {
		return nil, errors.Wrap(err, "invalid base URL")
	}

	d := &Driver{
		ID:        uuid.NewString(),
		Name:      name,
		BaseURL:   origin,
		Selectors: sel,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if u, err := url.Parse(origin); err == nil {
		d.Domain = u.Hostname()
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the required fields. Optional selectors may be empty, the
// container selectors and the title selector may not.
func (d *Driver) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("driver name is required")
	}
	if strings.TrimSpace(d.BaseURL) == "" {
		return errors.New("driver base URL is required")
	}
	if strings.TrimSpace(d.Selectors.AnimeList) == "" {
		return errors.New("selector animeList is required")
	}
	if strings.TrimSpace(d.Selectors.AnimeTitle) == "" {
		return errors.New("selector animeTitle is required")
	}
	if strings.TrimSpace(d.Selectors.EpisodeList) == "" {
		return errors.New("selector episodeList is required")
	}
	return nil
}

// Origin reduces a URL to its scheme://host[:port] form.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", errors.Errorf("URL %q has no origin", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
