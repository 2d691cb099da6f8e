// Package metrics holds the Prometheus collectors shared by both servers.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hemodilab"

// Collector owns a private registry; nothing is registered globally.
type Collector struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	rebuilds        prometheus.Counter
	rebuildFailures prometheus.Counter
	rebuildDuration prometheus.Histogram
	routes          prometheus.Gauge
	shadowed        prometheus.Gauge
	generation      prometheus.Gauge

	dynamicHits   *prometheus.CounterVec
	dynamicMisses prometheus.Counter
}

// NewCollector registers every collector on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		rebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_rebuilds_total",
			Help:      "Route table rebuilds that published a new table.",
		}),
		rebuildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_rebuild_failures_total",
			Help:      "Route table rebuilds that failed and kept the previous table.",
		}),
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "registry_rebuild_duration_seconds",
			Help:      "Time spent loading definitions and building the route table.",
			Buckets:   prometheus.DefBuckets,
		}),
		routes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_routes",
			Help:      "Routes in the published table.",
		}),
		shadowed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_shadowed_definitions",
			Help:      "Definitions hidden by an earlier definition with the same method and path.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registry_generation",
			Help:      "Generation number of the published table.",
		}),
		dynamicHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynamic_route_hits_total",
			Help:      "Requests answered from a definition, by entity.",
		}, []string{"entity"}),
		dynamicMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dynamic_route_misses_total",
			Help:      "Dynamic route requests with no matching definition.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requests, c.requestDuration,
		c.rebuilds, c.rebuildFailures, c.rebuildDuration,
		c.routes, c.shadowed, c.generation,
		c.dynamicHits, c.dynamicMisses,
	)
	return c
}

// ObserveRequest records one finished HTTP request.
func (c *Collector) ObserveRequest(method, route string, status int, latency time.Duration) {
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestDuration.WithLabelValues(route).Observe(latency.Seconds())
}

// RebuildSucceeded records a published table.
func (c *Collector) RebuildSucceeded(generation uint64, routes, shadowed int, took time.Duration) {
	c.rebuilds.Inc()
	c.rebuildDuration.Observe(took.Seconds())
	c.routes.Set(float64(routes))
	c.shadowed.Set(float64(shadowed))
	c.generation.Set(float64(generation))
}

// RebuildFailed records a rebuild that kept the previous table.
func (c *Collector) RebuildFailed(took time.Duration) {
	c.rebuildFailures.Inc()
	c.rebuildDuration.Observe(took.Seconds())
}

// DynamicHit records a request answered by a definition of entity.
func (c *Collector) DynamicHit(entity string) {
	c.dynamicHits.WithLabelValues(entity).Inc()
}

// DynamicMiss records a dynamic request with no matching definition.
func (c *Collector) DynamicMiss() {
	c.dynamicMisses.Inc()
}

// Registry exposes the underlying registry for tests and custom collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
