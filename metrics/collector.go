// Package metrics provides prometheus collectors for the decision
// engine. Embedding applications register a Collector on their own
// registry and hand it to the engine via decision.NewMetricsObserver
// and Engine.WithMetrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector aggregates decision and attempt metrics.
type Collector struct {
	decisionsTotal   *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	attemptsTotal    *prometheus.CounterVec
	attemptDuration  prometheus.Histogram

	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
	storeWrites *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector creates a collector registered on reg. A nil reg uses the
// default registerer.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.decisionsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Total number of decide calls by terminal status",
		},
		[]string{"status"},
	)

	c.decisionDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_duration_seconds",
			Help:      "Wall time of decide calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	c.attemptsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Total number of reasoning attempts by outcome",
		},
		[]string{"outcome"},
	)

	c.attemptDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_duration_seconds",
			Help:      "Wall time of individual generation attempts",
			Buckets:   prometheus.DefBuckets,
		},
	)

	c.cacheHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_hits_total",
			Help:      "Decision result cache hits",
		},
	)

	c.cacheMisses = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_misses_total",
			Help:      "Decision result cache misses",
		},
	)

	c.storeWrites = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_store_writes_total",
			Help:      "Audit store writes by result",
		},
		[]string{"result"},
	)

	return c
}

// RecordDecision records one terminal decide call.
func (c *Collector) RecordDecision(status string, elapsed time.Duration) {
	c.decisionsTotal.WithLabelValues(status).Inc()
	c.decisionDuration.WithLabelValues(status).Observe(elapsed.Seconds())
}

// RecordAttempt records one settled reasoning attempt.
func (c *Collector) RecordAttempt(outcome string, elapsed time.Duration) {
	c.attemptsTotal.WithLabelValues(outcome).Inc()
	c.attemptDuration.Observe(elapsed.Seconds())
}

// RecordCacheHit records a decision result served from cache.
func (c *Collector) RecordCacheHit() { c.cacheHits.Inc() }

// RecordCacheMiss records a cache lookup miss.
func (c *Collector) RecordCacheMiss() { c.cacheMisses.Inc() }

// RecordStoreWrite records an audit store write attempt. Failures are
// counted only; the caller owns logging.
func (c *Collector) RecordStoreWrite(err error) {
	result := "ok"
	if err != nil {
		result = "error"
		c.logger.Debug("audit store write recorded as error", zap.Error(err))
	}
	c.storeWrites.WithLabelValues(result).Inc()
}
