package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyChainFirstRelayWins(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://site.example/catalog", r.URL.Query().Get("url"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer relay.Close()

	chain := NewProxyChain([]string{relay.URL + "/?url=%s"})
	html, err := chain.FetchHTML(context.Background(), "https://site.example/catalog")
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", html)
}

func TestProxyChainFallsThroughOnFailure(t *testing.T) {
	var badHits int
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		badHits++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("rendered"))
	}))
	defer good.Close()

	chain := NewProxyChain([]string{bad.URL + "/?url=%s", good.URL + "/?url=%s"})
	html, err := chain.FetchHTML(context.Background(), "https://site.example/a")
	require.NoError(t, err)
	assert.Equal(t, "rendered", html)
	assert.Equal(t, 1, badHits)
}

func TestProxyChainSurfacesFirstErrorAfterExhaustion(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer first.Close()

	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer second.Close()

	chain := NewProxyChain([]string{first.URL + "/?url=%s", second.URL + "/?url=%s"})
	_, err := chain.FetchHTML(context.Background(), "https://site.example/a")
	require.Error(t, err)
	// The first relay's failure is the one reported.
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "relays exhausted")
}

func TestProxyChainServesFromCache(t *testing.T) {
	var hits int
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("cached page"))
	}))
	defer relay.Close()

	chain := NewProxyChain([]string{relay.URL + "/?url=%s"})
	for i := 0; i < 3; i++ {
		html, err := chain.FetchHTML(context.Background(), "https://site.example/a")
		require.NoError(t, err)
		assert.Equal(t, "cached page", html)
	}
	assert.Equal(t, 1, hits)
}

func TestProxyChainDefaultsRelays(t *testing.T) {
	chain := NewProxyChain(nil)
	assert.Equal(t, DefaultRelays, chain.relays)
}

func TestExpandRelay(t *testing.T) {
	assert.Equal(t,
		"https://relay.example/?url=https%3A%2F%2Fsite.example%2Fa",
		expandRelay("https://relay.example/?url=%s", "https://site.example/a"))
	assert.Equal(t,
		"https://relay.example/raw/https%3A%2F%2Fsite.example%2Fa",
		expandRelay("https://relay.example/raw/", "https://site.example/a"))
}
