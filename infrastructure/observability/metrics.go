package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
)

// Collector holds all Prometheus metrics for the engine
type Collector struct {
	// Registry for this collector instance
	registry  *prometheus.Registry
	namespace string

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Pipeline metrics
	CacheLookups       *prometheus.CounterVec
	PathSearches       *prometheus.CounterVec
	PathSearchDuration *prometheus.HistogramVec
	Discoveries        *prometheus.CounterVec
	DiscoveryDuration  prometheus.Histogram

	// Remote path source metrics
	RemoteRequests *prometheus.CounterVec
	RemoteDuration *prometheus.HistogramVec
	BreakerState   *prometheus.GaugeVec
}

// NewCollector creates a collector with its own registry so that tests and
// multiple containers never collide on registration.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry:  registry,
		namespace: namespace,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "path_cache_lookups_total",
				Help:      "Path cache lookups by tier and result",
			},
			[]string{"tier", "result"},
		),
		PathSearches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "path_searches_total",
				Help:      "Path searches by answering tier and whether paths were found",
			},
			[]string{"tier", "found"},
		),
		PathSearchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "path_search_duration_seconds",
				Help:      "Path search duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tier"},
		),
		Discoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discoveries_total",
				Help:      "Discovery requests by outcome",
			},
			[]string{"outcome"},
		),
		DiscoveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "discovery_duration_seconds",
				Help:      "End-to-end discovery duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		RemoteRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "remote_requests_total",
				Help:      "Requests to the remote path source by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		RemoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "remote_request_duration_seconds",
				Help:      "Remote path source request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_state",
				Help:      "Circuit breaker state (0 closed, 1 half-open, 2 open)",
			},
			[]string{"name"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheLookups,
		c.PathSearches,
		c.PathSearchDuration,
		c.Discoveries,
		c.DiscoveryDuration,
		c.RemoteRequests,
		c.RemoteDuration,
		c.BreakerState,
	)

	return c
}

// RecordCacheLookup counts a hit or miss on a cache tier
func (c *Collector) RecordCacheLookup(tier string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(tier, result).Inc()
}

// RecordPathSearch records which tier answered a path search
func (c *Collector) RecordPathSearch(tier string, paths int, duration time.Duration) {
	c.PathSearches.WithLabelValues(tier, strconv.FormatBool(paths > 0)).Inc()
	c.PathSearchDuration.WithLabelValues(tier).Observe(duration.Seconds())
}

// RecordDiscovery records one discovery pipeline run
func (c *Collector) RecordDiscovery(outcome string, paths int, duration time.Duration) {
	c.Discoveries.WithLabelValues(outcome).Inc()
	c.DiscoveryDuration.Observe(duration.Seconds())
}

// RecordRemoteRequest records one call to the remote path source
func (c *Collector) RecordRemoteRequest(endpoint string, status int, duration time.Duration) {
	c.RemoteRequests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	c.RemoteDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordBreakerState publishes a breaker transition
func (c *Collector) RecordBreakerState(name string, state gobreaker.State) {
	c.BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordHTTPRequest records one served HTTP request
func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// WatchCache publishes the size and eviction count of an in-process cache
// tier. stats is read on every scrape.
func (c *Collector) WatchCache(tier string, stats func() (items int, evictions int64)) {
	labels := prometheus.Labels{"tier": tier}
	c.registry.MustRegister(
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace:   c.namespace,
				Name:        "path_cache_items",
				Help:        "Entries currently held by a path cache tier",
				ConstLabels: labels,
			},
			func() float64 {
				items, _ := stats()
				return float64(items)
			},
		),
		prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Namespace:   c.namespace,
				Name:        "path_cache_evictions_total",
				Help:        "Entries evicted from a path cache tier to make room",
				ConstLabels: labels,
			},
			func() float64 {
				_, evictions := stats()
				return float64(evictions)
			},
		),
	)
}

// GetRegistry returns the Prometheus registry for this collector
func (c *Collector) GetRegistry() *prometheus.Registry {
	return c.registry
}

// NoopMetrics discards every measurement
type NoopMetrics struct{}

func (NoopMetrics) RecordCacheLookup(string, bool) {}
func (NoopMetrics) RecordPathSearch(string, int, time.Duration) {}
func (NoopMetrics) RecordDiscovery(string, int, time.Duration) {}
func (NoopMetrics) RecordRemoteRequest(string, int, time.Duration) {}
func (NoopMetrics) RecordBreakerState(string, gobreaker.State) {}
func (NoopMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}
