package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"glutenfree/internal/config"
	"glutenfree/internal/crawler"
	"glutenfree/internal/db"
	"glutenfree/internal/logging"
	"glutenfree/internal/observability"
	"glutenfree/internal/repository"
)

type options struct {
	out         string
	perCategory int
	strict      bool
	products    string
}

// go run ./cmd/scraper
// go run ./cmd/scraper -all -out=/tmp/products.jsonl
// go run ./cmd/scraper -products="404,/Products/Details?id=405"
func main() {
	cfg := config.Load()

	var opts options
	flag.StringVar(&opts.out, "out", cfg.OutputFile, "Output JSONL file (truncated once categories are found)")
	all := flag.Bool("all", false, "Scrape every product of each category instead of the first one")
	flag.IntVar(&opts.perCategory, "per-category", cfg.ProductsPerCategory, "Products attempted per category (0 = all)")
	flag.BoolVar(&opts.strict, "strict", cfg.Strict, "Skip product pages without a title element")
	flag.StringVar(&opts.products, "products", "", "Comma-separated product ids or URLs to scrape instead of crawling categories")
	flag.Parse()

	if *all {
		opts.perCategory = 0
	}

	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	srv, err := observability.Start(cfg.MetricsPort, reg, log)
	if err != nil {
		log.Fatalf("Could not start metrics endpoint: %v", err)
	}
	if srv != nil {
		defer srv.Close()
		log.Infof("Metrics on :%s/metrics", cfg.MetricsPort)
	}

	if _, err := run(ctx, cfg, opts, log, metrics); err != nil {
		log.Fatalf("Scrape aborted: %v", err)
	}
}

// run scrapes into opts.out. The output file is only truncated after
// category discovery succeeds, so a site outage keeps the previous file.
func run(ctx context.Context, cfg *config.Config, opts options, log *logrus.Logger, metrics *observability.Metrics) (*crawler.Report, error) {
	runID := uuid.NewString()

	scraper, err := crawler.New(crawler.Config{
		BaseURL:             cfg.BaseURL,
		UserAgent:           cfg.UserAgent,
		Timeout:             cfg.Timeout,
		MinDelay:            cfg.MinDelay,
		MaxDelay:            cfg.MaxDelay,
		ProductsPerCategory: opts.perCategory,
		Strict:              opts.strict,
		RunID:               runID,
		Logger:              log,
		Metrics:             metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid scraper configuration: %w", err)
	}

	outputPath, err := filepath.Abs(opts.out)
	if err != nil {
		return nil, fmt.Errorf("invalid output path %s: %w", opts.out, err)
	}

	var categories []string
	if opts.products == "" {
		categories, err = scraper.DiscoverCategories(ctx)
		if err != nil {
			return nil, err
		}
	}

	writer, err := repository.CreateJSONL(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	defer writer.Close()

	sinks := []crawler.Sink{writer}

	if cfg.DatabaseURL != "" {
		conn, err := db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to Postgres: %w", err)
		}
		defer conn.Close()

		repo := &repository.ProductRepository{DB: conn, RunID: runID}
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("prepare Postgres schema: %w", err)
		}
		sinks = append(sinks, repo)
	}

	var report *crawler.Report
	if opts.products != "" {
		report, err = scraper.RunProducts(ctx, strings.Split(opts.products, ","), sinks...)
	} else {
		report, err = scraper.RunCategories(ctx, categories, sinks...)
	}
	if err != nil {
		return report, err
	}

	log.Infof("Saved %d records to %s", report.Written, outputPath)
	if len(report.Failures) > 0 {
		log.Warnf("%d products could not be scraped", len(report.Failures))
	}
	return report, nil
}
