package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the collectors used across the API.
// A nil *MetricsService is valid and records nothing.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Histogram
	cacheWrite      prometheus.Histogram
	cacheLookups    *prometheus.CounterVec
	authFailures    *prometheus.CounterVec
	connections     prometheus.Gauge
	onlineUsers     prometheus.Gauge
	realtimeEvents  *prometheus.CounterVec
	droppedFrames   prometheus.Counter
	notifierDropped *prometheus.CounterVec
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	m := &MetricsService{
		registry: registry,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		cacheLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_latency_seconds",
			Help:    "Latency for cache lookups",
			Buckets: prometheus.DefBuckets,
		}),
		cacheWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cache_write_seconds",
			Help:    "Latency for cache set operations",
			Buckets: prometheus.DefBuckets,
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_lookups_total",
			Help: "Cache lookups by result",
		}, []string{"result"}),
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected authentication attempts by error code",
		}, []string{"code"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_connections",
			Help: "Open websocket connections",
		}),
		onlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "realtime_online_users",
			Help: "Identities with at least one open connection",
		}),
		realtimeEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "realtime_events_total",
			Help: "Websocket events by direction and name",
		}, []string{"direction", "event"}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "realtime_dropped_frames_total",
			Help: "Outbound frames dropped because a connection buffer was full",
		}),
		notifierDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_dropped_events_total",
			Help: "Domain events that could not be queued for delivery",
		}, []string{"event"}),
	}

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		m.requestDuration, m.requestTotal,
		m.cacheLatency, m.cacheWrite, m.cacheLookups,
		m.authFailures, m.connections, m.onlineUsers, m.realtimeEvents, m.droppedFrames, m.notifierDropped,
		goroutines,
	)
	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache lookup.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordAuthFailure counts a rejected credential by error code.
func (m *MetricsService) RecordAuthFailure(code string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(code).Inc()
}

// SetConnections sets the open connection gauge.
func (m *MetricsService) SetConnections(n int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(n))
}

// SetOnlineIdentities sets the online identity gauge.
func (m *MetricsService) SetOnlineIdentities(n int) {
	if m == nil {
		return
	}
	m.onlineUsers.Set(float64(n))
}

// ObserveEvent counts a realtime event. direction is "in" or "out".
func (m *MetricsService) ObserveEvent(direction, event string) {
	if m == nil {
		return
	}
	m.realtimeEvents.WithLabelValues(direction, event).Inc()
}

// ObserveDroppedFrame counts an outbound frame dropped on a full buffer.
func (m *MetricsService) ObserveDroppedFrame() {
	if m == nil {
		return
	}
	m.droppedFrames.Inc()
}

// ObserveNotifierDrop counts a domain event that could not be queued.
func (m *MetricsService) ObserveNotifierDrop(event string) {
	if m == nil {
		return
	}
	m.notifierDropped.WithLabelValues(event).Inc()
}
