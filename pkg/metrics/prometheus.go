package metrics

import (
	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	providerRequests *prometheus.CounterVec
	providerItems    *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	providerRetries  *prometheus.CounterVec
	signalsTotal     *prometheus.CounterVec
	combinedScore    *prometheus.GaugeVec
	errorsTotal      *prometheus.CounterVec
	latency          *prometheus.HistogramVec
}

var _ domrepo.Metrics = (*Recorder)(nil)

// New registers the recorder on the default registry.
func New() *Recorder { return NewWithRegistry(prometheus.DefaultRegisterer) }

// NewWithRegistry registers the recorder on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		providerRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_provider_requests_total",
				Help: "Sentiment provider fetches by outcome",
			},
			[]string{"provider", "outcome"},
		),
		providerItems: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_provider_items_total",
				Help: "Polarity items returned by each sentiment provider",
			},
			[]string{"provider"},
		),
		providerLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocksignal_provider_duration_seconds",
				Help:    "Sentiment provider fetch duration including retries",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider"},
		),
		providerRetries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_provider_retries_total",
				Help: "Retried sentiment provider attempts",
			},
			[]string{"provider"},
		),
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_signals_total",
				Help: "Signals generated by band",
			},
			[]string{"symbol", "band"},
		),
		combinedScore: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stocksignal_combined_score",
				Help: "Last combined score per symbol",
			},
			[]string{"symbol"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocksignal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocksignal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordProviderResult(provider string, items int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.providerRequests.WithLabelValues(provider, outcome).Inc()
	if items > 0 {
		r.providerItems.WithLabelValues(provider).Add(float64(items))
	}
}

func (r *Recorder) RecordProviderLatency(provider string, seconds float64) {
	r.providerLatency.WithLabelValues(provider).Observe(seconds)
}

func (r *Recorder) RecordRetry(provider string) {
	r.providerRetries.WithLabelValues(provider).Inc()
}

// RecordSignal counts the signal and keeps the latest score per symbol.
func (r *Recorder) RecordSignal(symbol string, band models.Band, score float64) {
	r.signalsTotal.WithLabelValues(symbol, string(band)).Inc()
	r.combinedScore.WithLabelValues(symbol).Set(score)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
