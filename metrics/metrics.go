// Package metrics exports scheduler, cache and gateway events to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/marketgate/scheduler"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements scheduler.Observer, cache.Observer and
// gateway.Observer on top of its own registry.
type Collector struct {
	registry *prometheus.Registry

	dispatches  *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	throttled   *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
	queue       *prometheus.GaugeVec

	lookups *prometheus.CounterVec
	evicted prometheus.Counter

	fallbacks prometheus.Counter
	served    *prometheus.CounterVec
	problems  *prometheus.CounterVec
}

// NewCollector returns a Collector whose metrics are prefixed by namespace,
// "marketgate" when empty.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "marketgate"
	}
	c := &Collector{
		registry: prometheus.NewRegistry(),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "dispatches_total",
			Help:      "Upstream calls dispatched by the scheduler.",
		}, []string{"scheduler", "priority", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of upstream calls.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		}, []string{"scheduler"}),
		throttled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "window_wait_seconds_total",
			Help:      "Time spent waiting for the rate window to free a slot.",
		}, []string{"scheduler"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "retry_after_seconds_total",
			Help:      "Time spent sleeping after an upstream rate limit response.",
		}, []string{"scheduler"}),
		queue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "queue_length",
			Help:      "Requests waiting to be dispatched.",
		}, []string{"scheduler"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by key kind and result.",
		}, []string{"kind", "result"}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "evicted_total",
			Help:      "Expired entries swept from the cache.",
		}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "fallback_symbols_total",
			Help:      "Symbols retried one by one after their batch failed.",
		}),
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "snapshot_requests_total",
			Help:      "Snapshot requests answered, by cache status.",
		}, []string{"cached"}),
		problems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "symbol_problems_total",
			Help:      "Symbols reported as errors or warnings.",
		}, []string{"kind"}),
	}
	c.registry.MustRegister(
		c.dispatches, c.latency, c.throttled, c.rateLimited, c.queue,
		c.lookups, c.evicted,
		c.fallbacks, c.served, c.problems,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
	return c
}

// Registry returns the registry holding the collector metrics.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler exposes the metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func priorityLabel(p int) string {
	switch p {
	case scheduler.PriorityHigh:
		return "high"
	case scheduler.PriorityLow:
		return "low"
	}
	return strconv.Itoa(p)
}

func (c *Collector) Dispatched(name string, priority int, outcome scheduler.Outcome, elapsed time.Duration) {
	c.dispatches.WithLabelValues(name, priorityLabel(priority), string(outcome)).Inc()
	c.latency.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (c *Collector) Throttled(name string, wait time.Duration) {
	c.throttled.WithLabelValues(name).Add(wait.Seconds())
}

func (c *Collector) RateLimited(name string, wait time.Duration) {
	c.rateLimited.WithLabelValues(name).Add(wait.Seconds())
}

func (c *Collector) QueueLength(name string, n int) {
	c.queue.WithLabelValues(name).Set(float64(n))
}

// keyKind keeps the label cardinality bounded: "snapshots:AAPL,MSFT" is
// counted as "snapshots".
func keyKind(key string) string {
	kind, _, _ := strings.Cut(key, ":")
	return kind
}

func (c *Collector) Hit(key string)  { c.lookups.WithLabelValues(keyKind(key), "hit").Inc() }
func (c *Collector) Miss(key string) { c.lookups.WithLabelValues(keyKind(key), "miss").Inc() }
func (c *Collector) Evicted(n int)   { c.evicted.Add(float64(n)) }

func (c *Collector) Fallback(symbols int) { c.fallbacks.Add(float64(symbols)) }

func (c *Collector) Served(cached bool, errors, warnings int) {
	c.served.WithLabelValues(strconv.FormatBool(cached)).Inc()
	c.problems.WithLabelValues("error").Add(float64(errors))
	c.problems.WithLabelValues("warning").Add(float64(warnings))
}
