// Package metrics provides a Prometheus-backed outcome recorder.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ersonp/pokecache/internal/domain/ports"
)

// Namespace prefixes every metric name.
const Namespace = "pokecache"

// Compile-time contract assertion.
var _ ports.Recorder = (*Recorder)(nil)

// Recorder counts resolution, write-back, upstream and HTTP outcomes.
type Recorder struct {
	registry    *prometheus.Registry
	resolutions *prometheus.CounterVec
	writeBacks  *prometheus.CounterVec
	upstream    *prometheus.CounterVec
	requests    *prometheus.CounterVec
}

// NewRecorder creates a Recorder on its own registry. Go runtime and process
// collectors are included.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		resolutions: newCounterVec(reg, "resolutions_total",
			"Resolutions by operation and the source that answered.", "operation", "source"),
		writeBacks: newCounterVec(reg, "writebacks_total",
			"Store write-back attempts by result.", "result"),
		upstream: newCounterVec(reg, "upstream_requests_total",
			"Upstream requests by endpoint and outcome.", "endpoint", "outcome"),
		requests: newCounterVec(reg, "http_requests_total",
			"HTTP requests by route and status code.", "route", "code"),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func newCounterVec(reg prometheus.Registerer, name, help string, labelNames ...string) *prometheus.CounterVec {
	m := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
	}, labelNames)
	reg.MustRegister(m)
	return m
}

// ObserveResolution implements ports.Recorder.
func (r *Recorder) ObserveResolution(operation, source string) {
	r.resolutions.WithLabelValues(operation, source).Inc()
}

// ObserveWriteBack implements ports.Recorder.
func (r *Recorder) ObserveWriteBack(result string) {
	r.writeBacks.WithLabelValues(result).Inc()
}

// ObserveUpstreamRequest records an upstream call outcome.
func (r *Recorder) ObserveUpstreamRequest(endpoint, outcome string) {
	r.upstream.WithLabelValues(endpoint, outcome).Inc()
}

// ObserveHTTPRequest records a served request.
func (r *Recorder) ObserveHTTPRequest(route string, code int) {
	r.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
