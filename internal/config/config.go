package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults match the constants the scraper has always run with.
const (
	DefaultBaseURL    = "https://bezglutena.celivita.hr"
	DefaultUserAgent  = "Mozilla/5.0 (compatible; GlutenFreeBot/1.0)"
	DefaultOutputFile = "gluten_free_products.jsonl"
	DefaultTimeout    = 10 * time.Second
	DefaultMinDelay   = 100 * time.Millisecond
	DefaultMaxDelay   = 400 * time.Millisecond
)

type Config struct {
	BaseURL             string
	UserAgent           string
	Timeout             time.Duration
	OutputFile          string
	MinDelay            time.Duration
	MaxDelay            time.Duration
	ProductsPerCategory int
	Strict              bool

	DatabaseURL    string
	RedisURL       string
	MetricsPort    string
	LookupAddr     string
	LookupCacheTTL time.Duration
	LogLevel       string
}

func Load() *Config {
	// Loads .env from the project root when run from cmd/<tool>, then from the cwd.
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	cfg := &Config{
		BaseURL:             strings.TrimRight(getEnv("SCRAPER_BASE_URL", DefaultBaseURL), "/"),
		UserAgent:           getEnv("SCRAPER_USER_AGENT", DefaultUserAgent),
		Timeout:             getDuration("SCRAPER_TIMEOUT", DefaultTimeout),
		OutputFile:          getEnv("SCRAPER_OUTPUT", DefaultOutputFile),
		MinDelay:            getDuration("SCRAPER_MIN_DELAY", DefaultMinDelay),
		MaxDelay:            getDuration("SCRAPER_MAX_DELAY", DefaultMaxDelay),
		ProductsPerCategory: getInt("SCRAPER_PRODUCTS_PER_CATEGORY", 1),
		Strict:              getBool("SCRAPER_STRICT", false),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		MetricsPort:    os.Getenv("METRICS_PORT"),
		LookupAddr:     getEnv("LOOKUP_ADDR", ":8080"),
		LookupCacheTTL: getDuration("LOOKUP_CACHE_TTL", 30*time.Minute),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	return cfg
}

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getDuration(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	parsed, err := time.ParseDuration(v)
	if err != nil || parsed < 0 {
		return d
	}
	return parsed
}

func getInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 0 {
		return d
	}
	return n
}

func getBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return d
	}
	return b
}
