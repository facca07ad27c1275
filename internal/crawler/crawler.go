package crawler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"glutenfree/internal/observability"
)

// Client fetches catalogue pages and parses them for querying.
type Client struct {
	HTTP      *http.Client
	UserAgent string
	Metrics   *observability.Metrics
}

func NewClient(userAgent string, timeout time.Duration) *Client {
	return &Client{
		HTTP:      &http.Client{Timeout: timeout},
		UserAgent: userAgent,
	}
}

// FetchDocument issues a GET for url and returns the parsed HTML document.
// No retries are attempted.
func (c *Client) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", c.UserAgent)

	started := time.Now()
	resp, err := c.HTTP.Do(req)
	c.Metrics.ObserveFetch(time.Since(started))
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, Status: resp.Status}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}
	return doc, nil
}
