package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	APILatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stocksignal",
			Subsystem: "api",
			Name:      "latency_seconds",
			Help:      "Latency of signal API endpoints",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		},
		[]string{"endpoint"},
	)

	APIErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stocksignal",
			Subsystem: "api",
			Name:      "errors_total",
			Help:      "Errors by signal API endpoint",
		},
		[]string{"endpoint"},
	)

	WSClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "stocksignal",
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Connected websocket clients",
	})
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(APILatency, APIErrors, WSClients)
	})
}
