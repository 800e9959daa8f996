// Package metrics provides Prometheus metrics collection for adminkit.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "adminkit"

// Collector holds all Prometheus metrics for adminkit. It satisfies the
// recorder interfaces of the loader, the interceptor and the builders.
type Collector struct {
	// Loader metrics
	ModulesLoaded      *prometheus.CounterVec
	ModuleLoadDuration *prometheus.HistogramVec
	Routes             prometheus.Gauge

	// Interceptor metrics
	EventsPublished *prometheus.CounterVec
	EventsReplayed  *prometheus.CounterVec

	// Builder metrics
	GridRequests  *prometheus.CounterVec
	ResourceCalls *prometheus.CounterVec

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector with a custom registry (useful for testing).
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ModulesLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "modules_loaded_total",
				Help:      "Total number of modules initialized by the loader",
			},
			[]string{"module"},
		),
		ModuleLoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "module_load_duration_seconds",
				Help:      "Time spent running a module initializer",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"module"},
		),
		Routes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "routes_registered",
				Help:      "Number of routes in the frozen route table",
			},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_published_total",
				Help:      "Total number of module descriptors published",
			},
			[]string{"module"},
		),
		EventsReplayed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_replayed_total",
				Help:      "Total number of late subscriptions served from the replay cache",
			},
			[]string{"module"},
		),

		GridRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "grid_requests_total",
				Help:      "Total number of grid list requests",
			},
			[]string{"route", "status"},
		),
		ResourceCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resource_calls_total",
				Help:      "Total number of resource service calls made by builders",
			},
			[]string{"route", "op", "status"},
		),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),

		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed config reloads",
			},
		),
	}
}

// ModuleLoaded records a successful initializer run.
func (c *Collector) ModuleLoaded(module string, took time.Duration) {
	c.ModulesLoaded.WithLabelValues(module).Inc()
	c.ModuleLoadDuration.WithLabelValues(module).Observe(took.Seconds())
}

// RoutesRegistered sets the size of the frozen route table.
func (c *Collector) RoutesRegistered(n int) {
	c.Routes.Set(float64(n))
}

// EventPublished counts a descriptor publication.
func (c *Collector) EventPublished(module string) {
	c.EventsPublished.WithLabelValues(module).Inc()
}

// EventReplayed counts a replay to a late subscriber.
func (c *Collector) EventReplayed(module string) {
	c.EventsReplayed.WithLabelValues(module).Inc()
}

// GridRequest counts a grid list request.
func (c *Collector) GridRequest(route string, err error) {
	c.GridRequests.WithLabelValues(route, Status(err)).Inc()
}

// ResourceCall counts a resource service call.
func (c *Collector) ResourceCall(route, op string, err error) {
	c.ResourceCalls.WithLabelValues(route, op, Status(err)).Inc()
}

// ConfigReloaded records the outcome of a config reload.
func (c *Collector) ConfigReloaded(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
}

// ObserveRequest records one HTTP request. route is the matched pattern,
// not the raw path, to bound cardinality.
func (c *Collector) ObserveRequest(method, route string, status int, took time.Duration) {
	c.RequestsTotal.WithLabelValues(method, route, StatusClass(status)).Inc()
	c.RequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Status maps an error to the "ok"/"error" label.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// StatusClass maps an HTTP status code to "2xx", "4xx", etc.
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}
