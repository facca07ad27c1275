package crawler

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// RunProducts scrapes the given product pages directly, skipping category
// discovery. Relative URLs and bare ids are resolved against the site root.
func (s *Scraper) RunProducts(ctx context.Context, productURLs []string, sinks ...Sink) (*Report, error) {
	report, log := s.newReport()
	defer func() { report.FinishedAt = time.Now() }()

	for _, raw := range productURLs {
		productURL, ok := s.productURL(raw)
		if !ok {
			continue
		}
		report.ProductLinks++
		if err := s.attempt(ctx, log, report, productURL, sinks); err != nil {
			return report, err
		}
	}

	log.Infof("All products written (%d records, %d failures)", report.Written, len(report.Failures))
	return report, nil
}

func (s *Scraper) productURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "/") && !strings.Contains(raw, "?") {
		return s.base.ResolveReference(&url.URL{
			Path:     "/Products/Details",
			RawQuery: url.Values{"id": {raw}}.Encode(),
		}).String(), true
	}
	return resolve(s.base, raw), true
}
