// Package metrics exposes the prometheus collectors for the API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wellness"

// Recorder is what the rest of the application reports to.
type Recorder interface {
	IncRequestsTotal(route string, status int)
	ObserveRequestDuration(route string, duration time.Duration)
	IncCacheHits(cache string)
	IncCacheMisses(cache string)
	IncViewsTracked()
	IncLeaderboardRefreshFailures()
	IncReadRetries(operation string)
	IncEventsPublished(result string)
}

// Metrics is the prometheus backed Recorder.
type Metrics struct {
	requestsTotal         *prometheus.CounterVec
	requestDuration       *prometheus.HistogramVec
	cacheHits             *prometheus.CounterVec
	cacheMisses           *prometheus.CounterVec
	viewsTracked          prometheus.Counter
	leaderboardRefreshErr prometheus.Counter
	readRetries           *prometheus.CounterVec
	eventsPublished       *prometheus.CounterVec
}

// New registers the collectors with reg. Passing nil uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"route", "status"}),

		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}, []string{"cache"}),

		cacheMisses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}, []string{"cache"}),

		viewsTracked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "views_tracked_total",
			Help:      "Total number of committed video views",
		}),

		leaderboardRefreshErr: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_refresh_failures_total",
			Help:      "Leaderboard refreshes that failed after a committed view",
		}),

		readRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_retries_total",
			Help:      "Read attempts retried after a transient storage error",
		}, []string{"operation"}),

		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "View events handed to the broker, by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncRequestsTotal(route string, status int) {
	m.requestsTotal.WithLabelValues(route, httpStatusBucket(status)).Inc()
}

func (m *Metrics) ObserveRequestDuration(route string, duration time.Duration) {
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) IncCacheHits(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncCacheMisses(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncViewsTracked() {
	m.viewsTracked.Inc()
}

func (m *Metrics) IncLeaderboardRefreshFailures() {
	m.leaderboardRefreshErr.Inc()
}

func (m *Metrics) IncReadRetries(operation string) {
	m.readRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncEventsPublished(result string) {
	m.eventsPublished.WithLabelValues(result).Inc()
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

// Noop returns a Recorder that discards everything, for when metrics are
// disabled and for tests.
func Noop() Recorder {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (noopMetrics) IncCacheHits(_ string)                            {}
func (noopMetrics) IncCacheMisses(_ string)                          {}
func (noopMetrics) IncViewsTracked()                                 {}
func (noopMetrics) IncLeaderboardRefreshFailures()                   {}
func (noopMetrics) IncReadRetries(_ string)                          {}
func (noopMetrics) IncEventsPublished(_ string)                      {}
