package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exposes application metrics via Prometheus.
type Recorder struct {
	searches      *prometheus.CounterVec
	cacheOps      *prometheus.CounterVec
	fetchCycles   *prometheus.CounterVec
	lastPrice     *prometheus.GaugeVec
	streamClients prometheus.Gauge
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		searches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrank_searches_total",
				Help: "Total number of search requests",
			},
			[]string{"result"},
		),
		cacheOps: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrank_cache_ops_total",
				Help: "Cache hits and misses per named cache",
			},
			[]string{"cache", "result"},
		),
		fetchCycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockrank_fetch_cycles_total",
				Help: "Upstream fetch cycles by outcome",
			},
			[]string{"result"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stockrank_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		streamClients: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockrank_stream_clients",
				Help: "Currently connected stream subscribers",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockrank_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSearch records a completed search with its outcome.
func (r *Recorder) RecordSearch(result string) {
	r.searches.WithLabelValues(result).Inc()
}

// RecordCacheOp records a hit or miss on a named cache.
func (r *Recorder) RecordCacheOp(cache, result string) {
	r.cacheOps.WithLabelValues(cache, result).Inc()
}

// RecordFetchCycle records the outcome of an upstream fetch cycle.
func (r *Recorder) RecordFetchCycle(result string) {
	r.fetchCycles.WithLabelValues(result).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// StreamClientConnected adjusts the connected subscriber gauge.
func (r *Recorder) StreamClientConnected(delta int) {
	r.streamClients.Add(float64(delta))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
