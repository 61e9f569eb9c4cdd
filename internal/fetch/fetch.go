// Package fetch turns URLs into raw HTML through one of two interchangeable
// strategies: an ordered chain of forwarding relays, or a shared automated
// browser session.
package fetch

import (
	"context"
	"time"
)

// nowFunc is swapped in tests that exercise deadline math.
var nowFunc = time.Now

// Fetcher retrieves the raw HTML of a page. Implementations do no parsing.
type Fetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (string, error)
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, pageURL string) (string, error)

func (f Func) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	return f(ctx, pageURL)
}
