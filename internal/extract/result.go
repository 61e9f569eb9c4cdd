// Package extract evaluates a driver's selector map against fetched pages
// and produces catalog, episode and video records.
package extract

// CrawlResult carries the best-effort output of a batch extraction. Failures
// are per-entry: a non-empty Errors list never implies Items is empty, and
// vice versa.
type CrawlResult[T any] struct {
	Items  []T      `json:"items"`
	Errors []string `json:"errors"`
}

// Progress reports advisory extraction progress after each item. It is never
// part of the correctness contract and may be nil.
type Progress func(current, total int, status string)

// Report invokes the callback when one is set.
func (p Progress) Report(current, total int, status string) {
	if p != nil {
		p(current, total, status)
	}
}
