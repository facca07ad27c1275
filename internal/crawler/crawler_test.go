package crawler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newSite serves the given path+query → HTML pages and 404s everything else.
func newSite(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		body, ok := pages[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestScraper(t *testing.T, baseURL string, mutate func(*Config)) *Scraper {
	t.Helper()
	cfg := Config{
		BaseURL:             baseURL,
		UserAgent:           "test-agent/1.0",
		Timeout:             time.Second,
		ProductsPerCategory: 1,
		Logger:              quietLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	return s
}

func TestFetchDocumentSendsUserAgent(t *testing.T) {
	t.Parallel()

	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		io.WriteString(w, "<html><body><h2 class=product_title>x</h2></body></html>")
	}))
	defer srv.Close()

	c := NewClient("Mozilla/5.0 (compatible; GlutenFreeBot/1.0)", time.Second)
	doc, err := c.FetchDocument(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotAgent != "Mozilla/5.0 (compatible; GlutenFreeBot/1.0)" {
		t.Fatalf("unexpected user agent %q", gotAgent)
	}
	if doc.Find("h2.product_title").Length() != 1 {
		t.Fatal("expected parsed document")
	}
}

func TestFetchDocumentClassifiesFailures(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("test", time.Second)
	_, err := c.FetchDocument(context.Background(), srv.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", statusErr.StatusCode)
	}
	if Classify(err) != KindStatus {
		t.Fatalf("kind = %q", Classify(err))
	}

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	_, err = c.FetchDocument(context.Background(), closedURL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if Classify(err) != KindFetch {
		t.Fatalf("kind = %q", Classify(err))
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want ErrorKind
	}{
		{err: nil, want: ""},
		{err: &ParseError{URL: "u", Err: io.ErrUnexpectedEOF}, want: KindParse},
		{err: &MissingElementError{URL: "u", Selector: titleSelector}, want: KindMissingElement},
		{err: &WriteError{URL: "u", Err: io.ErrShortWrite}, want: KindWrite},
		{err: &FetchError{URL: "u", Err: context.Canceled}, want: KindCanceled},
		{err: context.DeadlineExceeded, want: KindCanceled},
		{err: errors.New("boom"), want: KindUnknown},
	}
	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q want %q", tt.err, got, tt.want)
		}
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ftp://example.test", "https://"} {
		if _, err := New(Config{BaseURL: raw}); err == nil {
			t.Errorf("expected error for base URL %q", raw)
		}
	}
}

func TestStrippedText(t *testing.T) {
	t.Parallel()

	srv := newSite(t, map[string]string{
		"/": `<div id="d">
			<p>  Sastojci: <b>riža</b> , sol </p>
			<!-- hidden -->
			<script>var x = 1;</script>
			<p>Bez glutena</p>
		</div>`,
	})
	c := NewClient("test", time.Second)
	doc, err := c.FetchDocument(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	sel := doc.Find("#d")

	if got, want := strippedText(sel, "\n"), "Sastojci:\nriža\n, sol\nBez glutena"; got != want {
		t.Fatalf("newline join: got %q want %q", got, want)
	}
	if got, want := strippedText(sel, ""), "Sastojci:riža, solBez glutena"; got != want {
		t.Fatalf("empty join: got %q want %q", got, want)
	}
}
