// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is used by the service layer, the reconcile worker and the HTTP
// middleware.
type Recorder interface {
	RecordOperation(collection, op string, err error)
	RecordUploadFailure(folder string)
	RecordWearFailures(count int)
	RecordDriftRepaired(collection string)
	RecordHTTPRequest(method, route string, status int, duration time.Duration)
}

type Collector struct {
	operations     *prometheus.CounterVec
	uploadFail     *prometheus.CounterVec
	wearFail       prometheus.Counter
	driftRepaired  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_repository_operations_total",
			Help: "Repository operations by collection, operation and result",
		}, []string{"collection", "op", "result"}),
		uploadFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_upload_failures_total",
			Help: "Image uploads that failed, by folder",
		}, []string{"folder"}),
		wearFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wardrobe_wear_fanout_failures_total",
			Help: "Item updates that failed while marking an outfit worn",
		}),
		driftRepaired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_counter_drift_repaired_total",
			Help: "Metadata counters rewritten by reconciliation",
		}, []string{"collection"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wardrobe_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status_code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wardrobe_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		c.operations,
		c.uploadFail,
		c.wearFail,
		c.driftRepaired,
		c.httpRequests,
		c.requestLatency,
	)

	return c
}

func (c *Collector) RecordOperation(collection, op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	c.operations.WithLabelValues(collection, op, result).Inc()
}

func (c *Collector) RecordUploadFailure(folder string) {
	c.uploadFail.WithLabelValues(folder).Inc()
}

func (c *Collector) RecordWearFailures(count int) {
	c.wearFail.Add(float64(count))
}

func (c *Collector) RecordDriftRepaired(collection string) {
	c.driftRepaired.WithLabelValues(collection).Inc()
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.requestLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Nop discards everything. Used when metrics are disabled.
type Nop struct{}

func (Nop) RecordOperation(collection, op string, err error) {}
func (Nop) RecordUploadFailure(folder string) {}
func (Nop) RecordWearFailures(count int) {}
func (Nop) RecordDriftRepaired(collection string) {}
func (Nop) RecordHTTPRequest(method, route string, status int, d time.Duration) {}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
