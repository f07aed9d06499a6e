package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "signalboard"

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	pollCycles        *prometheus.CounterVec
	blobErrors        *prometheus.CounterVec
	tradesRecorded    *prometheus.CounterVec
	duplicateTrades   *prometheus.CounterVec
	sinkErrors        *prometheus.CounterVec
	messagesSent      *prometheus.CounterVec
	lastPrice         *prometheus.GaugeVec
	producerConnected prometheus.Gauge
	latency           *prometheus.HistogramVec
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// New creates a new Prometheus metrics recorder registered on reg.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		pollCycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_cycles_total",
				Help:      "Refresh cycles by outcome",
			},
			[]string{"result"},
		),
		blobErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blob_errors_total",
				Help:      "Blob read failures by blob and kind",
			},
			[]string{"blob", "kind"},
		),
		tradesRecorded: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trades_recorded_total",
				Help:      "Trades appended to the ledger",
			},
			[]string{"symbol"},
		),
		duplicateTrades: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_trades_total",
				Help:      "Trades skipped because the ledger already held them",
			},
			[]string{"symbol"},
		),
		sinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_errors_total",
				Help:      "Trade sink failures by backend",
			},
			[]string{"backend"},
		),
		messagesSent: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sink_messages_total",
				Help:      "Trades delivered to a sink backend",
			},
			[]string{"backend", "symbol"},
		),
		lastPrice: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_price",
				Help:      "Last observed price for a symbol",
			},
			[]string{"symbol"},
		),
		producerConnected: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "producer_connected",
				Help:      "1 when the upstream producer's status is fresh",
			},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of operations in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordPollCycle(result string) {
	r.pollCycles.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordBlobError(blob, kind string) {
	r.blobErrors.WithLabelValues(blob, kind).Inc()
}

func (r *Recorder) RecordTrade(symbol string) {
	r.tradesRecorded.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordDuplicateTrade(symbol string) {
	r.duplicateTrades.WithLabelValues(symbol).Inc()
}

func (r *Recorder) RecordSinkError(backend string) {
	r.sinkErrors.WithLabelValues(backend).Inc()
}

// RecordMessageSent records a trade delivered to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

func (r *Recorder) RecordProducerConnected(connected bool) {
	if connected {
		r.producerConnected.Set(1)
		return
	}
	r.producerConnected.Set(0)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordPollCycle(string)           {}
func (Nop) RecordBlobError(string, string)   {}
func (Nop) RecordTrade(string)               {}
func (Nop) RecordDuplicateTrade(string)      {}
func (Nop) RecordSinkError(string)           {}
func (Nop) RecordMessageSent(string, string) {}
func (Nop) RecordLastPrice(string, float64)  {}
func (Nop) RecordProducerConnected(bool)     {}
func (Nop) RecordLatency(string, float64)    {}
