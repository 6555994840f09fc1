package brokerclient

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
)

// Metrics holds every Prometheus collector the package registers, combining
// the promauto-constructor convention used throughout grafana-tempo (e.g.
// friggdb/pool's metrics) with the option of a nil Registerer for tests and
// callers that don't care about metrics.
//
// Only the produce collectors (produceRequestsTotal, produceBatchBytes,
// produceBatchRecords) are updated, by BatchProducer. The metadata, cache
// invalidation and retry collectors are registered but no code path in this
// package updates them, so they stay at zero.
type Metrics struct {
	reg prometheus.Registerer

	metadataRequestsTotal   *prometheus.CounterVec
	metadataRequestLatency  prometheus.Histogram
	brokerCacheInvalidation *prometheus.CounterVec
	produceRequestsTotal    *prometheus.CounterVec
	produceBatchBytes       prometheus.Histogram
	produceBatchRecords     prometheus.Histogram
	retryAttemptsTotal      *prometheus.CounterVec
	retryDeadlineExceeded   prometheus.Counter
}

// NewMetrics registers every brokerclient collector against reg. A nil
// Registerer is accepted (promauto.With(nil) is a documented no-op
// registration path) so callers that don't want metrics, and tests, can skip
// supplying one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		metadataRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokerclient",
			Name:      "metadata_requests_total",
			Help:      "Total metadata requests issued, by outcome.",
		}, []string{"outcome"}),
		metadataRequestLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "brokerclient",
			Name:      "metadata_request_duration_seconds",
			Help:      "Latency of metadata requests against brokers.",
			Buckets:   prometheus.DefBuckets,
		}),
		brokerCacheInvalidation: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokerclient",
			Name:      "broker_cache_invalidations_total",
			Help:      "Total broker cache invalidations, by cache name.",
		}, []string{"cache"}),
		produceRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokerclient",
			Name:      "produce_requests_total",
			Help:      "Total produce RPCs issued, by outcome.",
		}, []string{"outcome"}),
		produceBatchBytes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "brokerclient",
			Name:      "produce_batch_bytes",
			Help:      "Size in bytes of flushed produce batches.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		produceBatchRecords: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "brokerclient",
			Name:      "produce_batch_records",
			Help:      "Number of records in flushed produce batches.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		retryAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "brokerclient",
			Name:      "retry_attempts_total",
			Help:      "Total retry attempts, by operation name.",
		}, []string{"op"}),
		retryDeadlineExceeded: f.NewCounter(prometheus.CounterOpts{
			Namespace: "brokerclient",
			Name:      "retry_deadline_exceeded_total",
			Help:      "Total retry loops that gave up after exceeding their deadline.",
		}),
	}
}

// kgoClientMetrics builds the kprom hook that instruments the raw kgo.Client
// BrokerConnector issues requests through (connection counts, request/response
// bytes and latency), registered against the same Registerer as the rest of
// m's collectors. kprom.Metrics implements kgo.HookNewConnection and friends,
// so wiring it in is exactly kgo.WithHooks(...).
func kgoClientMetrics(m *Metrics) kgo.Hook {
	return kprom.NewMetrics("brokerclient_kgo", kprom.Registerer(m.reg))
}
