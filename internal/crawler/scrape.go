package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"glutenfree/internal/model"
	"glutenfree/internal/observability"
)

// Sink persists scraped products. Save is called once per record, in order.
type Sink interface {
	Save(ctx context.Context, p *model.Product) error
}

// Config defines inputs for the scraper.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client
	MinDelay  time.Duration
	MaxDelay  time.Duration
	// ProductsPerCategory caps the product links attempted per category.
	// Zero attempts every link.
	ProductsPerCategory int
	Strict              bool
	// RunID tags log lines and records; one is generated when empty.
	RunID   string
	Logger  *logrus.Logger
	Metrics *observability.Metrics
}

// Report captures the outcome of a run.
type Report struct {
	RunID        string
	Categories   int
	ProductLinks int
	Written      int
	Failures     []Failure
	StartedAt    time.Time
	FinishedAt   time.Time
}

// Failure records a product that produced no output line.
type Failure struct {
	URL     string
	Kind    ErrorKind
	Message string
}

type Scraper struct {
	client    *Client
	base      *url.URL
	imageBase string
	minDelay  time.Duration
	maxDelay  time.Duration
	perCat    int
	strict    bool
	runID     string
	log       *logrus.Logger
	metrics   *observability.Metrics

	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) (*Scraper, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", base.Scheme)
	}
	if base.Host == "" {
		return nil, errors.New("base URL must include a host")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := NewClient(cfg.UserAgent, timeout)
	if cfg.Client != nil {
		client.HTTP = cfg.Client
	}
	client.Metrics = cfg.Metrics

	maxDelay := cfg.MaxDelay
	if maxDelay < cfg.MinDelay {
		maxDelay = cfg.MinDelay
	}
	perCat := cfg.ProductsPerCategory
	if perCat < 0 {
		perCat = 0
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	runID := cfg.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	return &Scraper{
		client:    client,
		base:      base,
		imageBase: strings.TrimRight(cfg.BaseURL, "/"),
		minDelay:  cfg.MinDelay,
		maxDelay:  maxDelay,
		perCat:    perCat,
		strict:    cfg.Strict,
		runID:     runID,
		log:       logger,
		metrics:   cfg.Metrics,
		sleep:     sleepContext,
	}, nil
}

// Run discovers categories and their products, parses each product and
// hands the record to every sink. A product that fails is logged and
// skipped; failing to list categories or a category's products ends the run.
// The report is nil when category discovery fails.
func (s *Scraper) Run(ctx context.Context, sinks ...Sink) (*Report, error) {
	categories, err := s.DiscoverCategories(ctx)
	if err != nil {
		return nil, err
	}
	return s.RunCategories(ctx, categories, sinks...)
}

// DiscoverCategories lists the category pages linked from the site root.
// Nothing is handed to a sink, so callers can open outputs only once it
// succeeds.
func (s *Scraper) DiscoverCategories(ctx context.Context) ([]string, error) {
	categories, err := s.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.metrics.AddCategories(len(categories))
	s.log.WithField("run_id", s.runID).Infof("Found %d categories.", len(categories))
	return categories, nil
}

// RunCategories scrapes the products of already discovered categories.
func (s *Scraper) RunCategories(ctx context.Context, categories []string, sinks ...Sink) (*Report, error) {
	report, log := s.newReport()
	defer func() { report.FinishedAt = time.Now() }()
	report.Categories = len(categories)

	for _, categoryURL := range categories {
		log.WithField("category", categoryURL).Infof("Scanning category: %s", categoryURL)
		links, err := s.ProductLinks(ctx, categoryURL)
		if err != nil {
			return report, fmt.Errorf("list products of %s: %w", categoryURL, err)
		}
		report.ProductLinks += len(links)
		s.metrics.AddProductLinks(len(links))
		log.WithField("category", categoryURL).Infof("  -> %d products found", len(links))

		if s.perCat > 0 && len(links) > s.perCat {
			links = links[:s.perCat]
		}

		for _, productURL := range links {
			if err := s.attempt(ctx, log, report, productURL, sinks); err != nil {
				return report, err
			}
		}
	}

	log.Infof("All products written (%d records, %d failures)", report.Written, len(report.Failures))
	return report, nil
}

func (s *Scraper) newReport() (*Report, *logrus.Entry) {
	report := &Report{RunID: s.runID, StartedAt: time.Now()}
	return report, s.log.WithField("run_id", s.runID)
}

// attempt scrapes one product, records the outcome in report and waits the
// inter-product delay. Only cancellation is returned as an error.
func (s *Scraper) attempt(ctx context.Context, log *logrus.Entry, report *Report, productURL string, sinks []Sink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.WithField("url", productURL).Infof("Parsing product: %s", productURL)

	if err := s.scrapeProduct(ctx, productURL, sinks); err != nil {
		kind := Classify(err)
		report.Failures = append(report.Failures, Failure{URL: productURL, Kind: kind, Message: err.Error()})
		s.metrics.IncFailure(string(kind))
		log.WithFields(logrus.Fields{"url": productURL, "kind": kind}).
			Errorf("ERROR parsing %s: %v", productURL, err)
	} else {
		report.Written++
		s.metrics.IncWritten()
	}

	return s.pause(ctx)
}

func (s *Scraper) scrapeProduct(ctx context.Context, productURL string, sinks []Sink) error {
	product, err := s.ParseProduct(ctx, productURL)
	if err != nil {
		return err
	}
	for _, sink := range sinks {
		if err := sink.Save(ctx, product); err != nil {
			return &WriteError{URL: productURL, Err: err}
		}
	}
	return nil
}

// pause waits a uniform random delay in [minDelay, maxDelay].
func (s *Scraper) pause(ctx context.Context) error {
	d := s.minDelay
	if span := s.maxDelay - s.minDelay; span > 0 {
		d += time.Duration(rand.Int64N(int64(span) + 1))
	}
	if d <= 0 {
		return ctx.Err()
	}
	return s.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
