// Package metrics exposes Nugget's Prometheus surface: request volume and
// latency, script execution outcomes, and object store size, served over a
// dedicated registry at GET /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds Nugget's own collectors, kept separate from the default
// global registry so /metrics never leaks unrelated process collectors
// registered by a dependency's init().
var Registry = prometheus.NewRegistry()

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "nugget",
		Subsystem: "http",
		Name:      "inflight_requests",
		Help:      "Current number of in-flight HTTP requests.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nugget",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled, by route and status.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "nugget",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of HTTP requests, by route.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
	}, []string{"method", "route"})

	scriptExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nugget",
		Subsystem: "script",
		Name:      "executions_total",
		Help:      "Total number of lua_script route executions, by outcome.",
	}, []string{"route", "outcome"})

	objectsStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nugget",
		Subsystem: "objects",
		Name:      "stored_total",
		Help:      "Total number of objects inserted into the object store, by type.",
	}, []string{"type"})

	objectStoreSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "nugget",
		Subsystem: "object_store",
		Name:      "size",
		Help:      "Current number of objects held per type, refreshed on every put/clear.",
	}, []string{"type"})
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		scriptExecutions,
		objectsStored,
		objectStoreSize,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler serves the registered collectors for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument wraps next with request-count and latency collection, labeling
// by the matched route template (e.g. "/users/{id}") rather than the raw
// path, so cardinality stays bounded by the configured route count.
// Requests that match no route are labeled by their raw path.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := routeTemplate(next, r)
		httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())
	})
}

// RecordScriptExecution records one lua_script invocation's outcome.
func RecordScriptExecution(route, outcome string) {
	scriptExecutions.WithLabelValues(route, outcome).Inc()
}

// RecordObjectStored records one successful insertion into the object store.
func RecordObjectStored(typeName string) {
	objectsStored.WithLabelValues(typeName).Inc()
}

// SetObjectStoreSize refreshes the current per-type object count after a put.
func SetObjectStoreSize(typeName string, size int) {
	objectStoreSize.WithLabelValues(typeName).Set(float64(size))
}

// ResetObjectStoreSize drops every per-type size series after the object
// store is cleared, since no type holds any objects anymore.
func ResetObjectStoreSize() {
	objectStoreSize.Reset()
}

// routeTemplate finds the route template for r. When next is the router
// itself, r is the outer request, which mux never annotates with the matched
// route, so the match is repeated against the router here.
func routeTemplate(next http.Handler, r *http.Request) string {
	route := mux.CurrentRoute(r)
	if router, ok := next.(*mux.Router); ok && route == nil {
		var match mux.RouteMatch
		if router.Match(r, &match) {
			route = match.Route
		}
	}
	if route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
