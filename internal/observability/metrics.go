package observability

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Metrics groups the scraper and lookup collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	CategoriesTotal   prometheus.Counter
	ProductLinksTotal prometheus.Counter
	ProductsWritten   prometheus.Counter
	ProductFailures   *prometheus.CounterVec
	FetchDuration     prometheus.Histogram
	LookupRequests    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CategoriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_categories_total",
			Help: "Category pages discovered on the catalogue root",
		}),
		ProductLinksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_product_links_total",
			Help: "Product links found across category pages",
		}),
		ProductsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scraper_products_written_total",
			Help: "Product records persisted",
		}),
		ProductFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_product_failures_total",
			Help: "Products that produced no record, by failure kind",
		}, []string{"kind"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scraper_fetch_duration_seconds",
			Help:    "Page fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		LookupRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "lookup_requests_total",
			Help: "EAN lookups, by the source that answered",
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.CategoriesTotal,
		m.ProductLinksTotal,
		m.ProductsWritten,
		m.ProductFailures,
		m.FetchDuration,
		m.LookupRequests,
	)
	return m
}

func (m *Metrics) AddCategories(n int) {
	if m == nil {
		return
	}
	m.CategoriesTotal.Add(float64(n))
}

func (m *Metrics) AddProductLinks(n int) {
	if m == nil {
		return
	}
	m.ProductLinksTotal.Add(float64(n))
}

func (m *Metrics) IncWritten() {
	if m == nil {
		return
	}
	m.ProductsWritten.Inc()
}

func (m *Metrics) IncFailure(kind string) {
	if m == nil {
		return
	}
	m.ProductFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

func (m *Metrics) IncLookup(source string) {
	if m == nil {
		return
	}
	m.LookupRequests.WithLabelValues(source).Inc()
}

// Start serves /metrics for g on port in the background. An empty port
// disables the endpoint. The listener is opened before Start returns, so a
// port already in use is reported to the caller.
func Start(port string, g prometheus.Gatherer, log logrus.FieldLogger) (*http.Server, error) {
	if port == "" {
		return nil, nil
	}
	ln, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("listen on :%s: %w", port, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics endpoint stopped")
		}
	}()
	return srv, nil
}
