package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/util"
	"github.com/pkg/errors"
)

// DefaultRelays are public forwarding relays tried in order. Each template
// receives the query-escaped target URL at its %s placeholder; templates
// without a placeholder get the target appended.
var DefaultRelays = []string{
	"https://api.allorigins.win/raw?url=%s",
	"https://corsproxy.io/?url=%s",
	"https://api.codetabs.com/v1/proxy?quest=%s",
}

// ProxyChain fetches HTML by trying each relay template in order. The first
// relay that answers with a success status wins; the first error observed is
// the one surfaced once every relay is exhausted.
type ProxyChain struct {
	relays []string
	client *http.Client
	cache  *util.ResponseCache
}

// NewProxyChain builds a chain over the given relay templates, falling back
// to DefaultRelays when none are configured.
func NewProxyChain(relays []string) *ProxyChain {
	if len(relays) == 0 {
		relays = DefaultRelays
	}
	return &ProxyChain{
		relays: relays,
		client: util.GetSharedClient(),
		cache:  util.NewResponseCache(2*time.Minute, 50),
	}
}

// FetchHTML implements Fetcher.
func (p *ProxyChain) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	if cached, ok := p.cache.Get(pageURL); ok {
		util.Debug("serving page from cache", "url", pageURL)
		return string(cached), nil
	}

	var firstErr error
	for _, relay := range p.relays {
		relayURL := expandRelay(relay, pageURL)
		util.Debug("trying relay", "relay", relayURL)

		body, err := p.fetchOnce(ctx, relayURL)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		p.cache.Set(pageURL, []byte(body))
		return body, nil
	}

	return "", errors.Wrapf(firstErr, "all %d relays exhausted for %s", len(p.relays), pageURL)
}

func (p *ProxyChain) fetchOnce(ctx context.Context, relayURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, relayURL, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to build relay request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "relay request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("relay returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "failed to read relay response")
	}
	return string(body), nil
}

func expandRelay(template, pageURL string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, url.QueryEscape(pageURL))
	}
	return template + url.QueryEscape(pageURL)
}
