// Package metrics exposes Prometheus collectors for the RPC layer, the split
// allocator and the balance engine.
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "groupsplit"

// Metrics holds every collector on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	rpcRequests  *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	allocations  *prometheus.CounterVec
	transfers    prometheus.Histogram
	balanceRuns  prometheus.Counter
	eventsFailed *prometheus.CounterVec
}

// New registers the collectors, plus the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		rpcRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "RPC calls by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "RPC latency by procedure.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure"}),
		allocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_allocations_total",
			Help:      "Split allocations by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		transfers: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_transfers",
			Help:      "Transfers emitted per balance computation.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		balanceRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "balance_computations_total",
			Help:      "Balance computations run.",
		}),
		eventsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Change events that could not be published, by type.",
		}, []string{"type"}),
	}
}

// ObserveRPC records one finished call.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(d.Seconds())
}

// ObserveAllocation records a split allocation; err is the allocator's result.
func (m *Metrics) ObserveAllocation(strategy string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.allocations.WithLabelValues(strategy, outcome).Inc()
}

// ObserveBalances records how many transfers one balance computation emitted.
func (m *Metrics) ObserveBalances(transfers int) {
	if m == nil {
		return
	}
	m.balanceRuns.Inc()
	m.transfers.Observe(float64(transfers))
}

// EventFailed counts an event that was dropped.
func (m *Metrics) EventFailed(eventType string) {
	if m == nil {
		return
	}
	m.eventsFailed.WithLabelValues(eventType).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
