package extract

import (
	"net/url"
	"strings"
)

// NormalizeURL resolves an extracted URL against the driver's base origin and
// rewrites any foreign origin back to it. Relays sometimes rewrite absolute
// URLs in the response to point at themselves; no extracted URL may resolve
// to anything other than the driver's configured domain.
func NormalizeURL(raw, baseOrigin string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	base, err := url.Parse(baseOrigin)
	if err != nil || base.Host == "" {
		return raw
	}

	if strings.HasPrefix(raw, "//") {
		raw = base.Scheme + ":" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(u)
	if resolved.Host != base.Host {
		// A relay substituted its own origin; put the driver's back.
		resolved.Scheme = base.Scheme
		resolved.Host = base.Host
	}
	return resolved.String()
}
