package discovery

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxSampleBytes bounds the HTML slice shipped to the model. Whole documents
// blow the context window without adding structure.
const maxSampleBytes = 24000

var whitespaceRe = regexp.MustCompile(`\s{2,}`)

// sampleHTML reduces a document to a bounded, structure-preserving sample:
// scripts, styles and inline noise are dropped, whitespace is collapsed, and
// the remainder is truncated at a tag boundary.
func sampleHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return truncateAtTag(html, maxSampleBytes)
	}

	doc.Find("script, style, noscript, svg, link, meta").Remove()

	body, err := doc.Find("body").Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body = html
	}

	body = whitespaceRe.ReplaceAllString(body, " ")
	return truncateAtTag(body, maxSampleBytes)
}

func truncateAtTag(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, ">"); idx > 0 {
		cut = cut[:idx+1]
	}
	return cut
}
