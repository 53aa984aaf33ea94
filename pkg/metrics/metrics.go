package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several apps (tests) can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	commitsCreated  prometheus.Counter
	commitsReplayed prometheus.Counter
	commitsRejected *prometheus.CounterVec
}

// New registers the service metrics under prefix.
func New(prefix string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		commitsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_commits_created_total",
			Help: "Commits stored",
		}),
		commitsReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_commits_replayed_total",
			Help: "Commit submissions answered from an existing idempotency key",
		}),
		commitsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_commits_rejected_total",
			Help: "Commit submissions rejected, by reason",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.requests,
		m.requestDuration,
		m.commitsCreated,
		m.commitsReplayed,
		m.commitsRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Middleware records count and latency for each request.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		labels := []string{c.Method(), path, strconv.Itoa(status)}
		m.requests.WithLabelValues(labels...).Inc()
		m.requestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// The commit counters are nil-safe so services can run without metrics.

func (m *Metrics) CommitCreated() {
	if m != nil {
		m.commitsCreated.Inc()
	}
}

func (m *Metrics) CommitReplayed() {
	if m != nil {
		m.commitsReplayed.Inc()
	}
}

func (m *Metrics) CommitRejected(reason string) {
	if m != nil {
		m.commitsRejected.WithLabelValues(reason).Inc()
	}
}
