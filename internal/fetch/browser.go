package fetch

import (
	"context"
	"strings"
	"sync"

	"github.com/BuuhV-Projects/anidock-hub-sub000/internal/util"
	"github.com/pkg/errors"
	"github.com/playwright-community/playwright-go"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

	navigationTimeoutMs = 30000
	// settleDelayMs gives client-side rendering time to fill the DOM after
	// the navigation itself has finished.
	settleDelayMs = 2500
)

// blockedHosts are domains whose requests are aborted inside the page;
// CAPTCHA widgets and ad redirectors only get in the way of extraction.
var blockedHosts = []string{
	"google.com/recaptcha",
	"hcaptcha.com",
	"challenges.cloudflare.com",
	"doubleclick.net",
	"popads.net",
	"adsco.re",
}

// Browser fetches pages through a single long-lived Playwright session. The
// session is created lazily on first use and reused until Close; every fetch
// runs in its own isolated context and page.
type Browser struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser

	// BlockedHosts overrides the default abort list when non-nil.
	BlockedHosts []string
}

// NewBrowser returns a browser-backed fetcher. No process is spawned until
// the first FetchHTML call.
func NewBrowser() *Browser {
	return &Browser{}
}

// session returns the shared browser, launching it on first use. The mutex
// keeps two first-callers from racing to spawn two sessions.
func (b *Browser) session() (playwright.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.browser != nil && b.browser.IsConnected() {
		return b.browser, nil
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, errors.Wrap(err, "failed to start playwright")
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, errors.Wrap(err, "failed to launch browser")
	}

	b.pw = pw
	b.browser = browser
	util.Debug("browser session started")
	return browser, nil
}

// FetchHTML implements Fetcher. The page and its context are closed on every
// exit path; only the session outlives the call.
func (b *Browser) FetchHTML(ctx context.Context, pageURL string) (string, error) {
	browser, err := b.session()
	if err != nil {
		return "", err
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(defaultUserAgent),
		Viewport: &playwright.Size{
			Width:  1366,
			Height: 768,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to create browser context")
	}
	defer func() {
		if cerr := bctx.Close(); cerr != nil {
			util.Warn("failed to close browser context", "error", cerr)
		}
	}()

	page, err := bctx.NewPage()
	if err != nil {
		return "", errors.Wrap(err, "failed to open page")
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			util.Warn("failed to close page", "error", cerr)
		}
	}()

	blocked := b.BlockedHosts
	if blocked == nil {
		blocked = blockedHosts
	}
	err = page.Route("**/*", func(route playwright.Route) {
		reqURL := route.Request().URL()
		for _, host := range blocked {
			if strings.Contains(reqURL, host) {
				_ = route.Abort()
				return
			}
		}
		_ = route.Continue()
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to install request filter")
	}

	timeout := float64(navigationTimeoutMs)
	if deadline, ok := ctx.Deadline(); ok {
		if ms := float64(deadline.Sub(nowFunc()).Milliseconds()); ms > 0 && ms < timeout {
			timeout = ms
		}
	}

	if _, err = page.Goto(pageURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(timeout),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return "", errors.Wrapf(err, "navigation to %s failed", pageURL)
	}

	page.WaitForTimeout(settleDelayMs)

	html, err := page.Content()
	if err != nil {
		return "", errors.Wrap(err, "failed to read rendered document")
	}
	return html, nil
}

// Close shuts the shared session down. Safe to call when nothing was started.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var firstErr error
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			firstErr = errors.Wrap(err, "failed to close browser")
		}
		b.browser = nil
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil && firstErr == nil {
			firstErr = errors.Wrap(err, "failed to stop playwright")
		}
		b.pw = nil
	}
	return firstErr
}
