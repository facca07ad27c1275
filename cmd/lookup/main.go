package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"glutenfree/internal/config"
	"glutenfree/internal/db"
	"glutenfree/internal/logging"
	"glutenfree/internal/lookup"
	"glutenfree/internal/observability"
	"glutenfree/internal/repository"
)

// go run ./cmd/lookup -ean=3850104022517
// go run ./cmd/lookup            (serves GET /products?ean=...)
func main() {
	cfg := config.Load()

	file := flag.String("file", cfg.OutputFile, "JSONL file produced by the scraper")
	ean := flag.String("ean", "", "Look up a single EAN and exit")
	flag.Parse()

	log := logging.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	svc := &lookup.Service{Log: log, Metrics: observability.NewMetrics(reg)}

	index, err := lookup.LoadIndexFile(*file)
	switch {
	case err == nil:
		svc.Index = index
		log.Infof("Indexed %d products from %s (%d malformed lines skipped)", index.Len(), *file, index.Skipped)
	case errors.Is(err, os.ErrNotExist) && cfg.DatabaseURL != "":
		log.Warnf("%s not found, answering from Postgres only", *file)
	default:
		log.Fatalf("Could not load %s: %v", *file, err)
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			// REDIS_URL may also be a bare host:port.
			opts = &redis.Options{Addr: cfg.RedisURL}
		}
		client := redis.NewClient(opts)
		defer client.Close()
		svc.Cache = &lookup.RedisCache{Client: client, TTL: cfg.LookupCacheTTL}
	}

	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Could not connect to Postgres (pgxpool): %v", err)
		}
		defer pool.Close()
		svc.Store = &repository.ProductQuery{DB: pool}
	}

	if *ean != "" {
		product, _, err := svc.Find(ctx, *ean)
		if err != nil {
			log.Fatalf("Lookup %s: %v", *ean, err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		enc.Encode(product)
		return
	}

	metricsSrv, err := observability.Start(cfg.MetricsPort, reg, log)
	if err != nil {
		log.Fatalf("Could not start metrics endpoint: %v", err)
	}
	if metricsSrv != nil {
		defer metricsSrv.Close()
	}

	mux := http.NewServeMux()
	mux.Handle("/products", lookup.Handler(svc))
	srv := &http.Server{
		Addr:              cfg.LookupAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Lookup serving on %s", cfg.LookupAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}
