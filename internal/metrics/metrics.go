package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	mapBuilds           prometheus.Counter
	mapBuildDuration    prometheus.Histogram
	mapCacheLookups     *prometheus.CounterVec
	droppedLinks        prometheus.Counter
	importRows          *prometheus.CounterVec
}

// New creates a fresh Metrics registry with HTTP, map and import metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkmap",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by linkmap",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "linkmap",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by linkmap",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	mapBuilds := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linkmap",
		Name:      "map_builds_total",
		Help:      "Total number of map models computed (cache misses)",
	})

	mapBuildDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "linkmap",
		Name:      "map_build_duration_seconds",
		Help:      "Duration of map model computation including data load",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	mapCacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkmap",
		Name:      "map_cache_lookups_total",
		Help:      "Map cache lookups by result (hit or miss)",
	}, []string{"result"})

	droppedLinks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "linkmap",
		Name:      "map_dropped_links_total",
		Help:      "Links omitted from a rendered map because an endpoint had no coordinates",
	})

	importRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "linkmap",
		Name:      "import_rows_total",
		Help:      "Rows processed by CSV imports by entity and outcome",
	}, []string{"entity", "outcome"})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		mapBuilds,
		mapBuildDuration,
		mapCacheLookups,
		droppedLinks,
		importRows,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		mapBuilds:           mapBuilds,
		mapBuildDuration:    mapBuildDuration,
		mapCacheLookups:     mapCacheLookups,
		droppedLinks:        droppedLinks,
		importRows:          importRows,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveMapBuild records one computed map and how many links it dropped.
func (m *Metrics) ObserveMapBuild(duration time.Duration, dropped int) {
	if m == nil {
		return
	}
	m.mapBuilds.Inc()
	m.mapBuildDuration.Observe(duration.Seconds())
	if dropped > 0 {
		m.droppedLinks.Add(float64(dropped))
	}
}

func (m *Metrics) IncMapCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.mapCacheLookups.WithLabelValues(result).Inc()
}

// AddImportRows counts import outcomes, e.g. ("site", "skipped", 3).
func (m *Metrics) AddImportRows(entity, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.importRows.WithLabelValues(entity, outcome).Add(float64(n))
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
