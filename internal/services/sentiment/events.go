package sentiment

import (
	"time"

	domrepo "StockSignal/internal/domain/repository"
	applogger "StockSignal/pkg/logger"
)

type EventKind string

const (
	EventProviderSucceeded EventKind = "provider_succeeded"
	EventProviderFailed    EventKind = "provider_failed"
	EventProviderRetry     EventKind = "provider_retry"
	EventAggregated        EventKind = "sentiment_aggregated"
)

// Event is one structured observation emitted during aggregation.
type Event struct {
	Kind     EventKind
	Symbol   string
	Provider string
	Items    int
	Attempt  int
	Value    float64
	Latency  time.Duration
	Wait     time.Duration
	Err      error
}

// EventSink receives aggregation events. Implementations must be safe for concurrent use.
type EventSink interface {
	Emit(Event)
}

type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(e Event) { f(e) }

type nopSink struct{}

func (nopSink) Emit(Event) {}

// MultiSink fans each event out to every sink.
type MultiSink []EventSink

func (m MultiSink) Emit(e Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(e)
		}
	}
}

// LogSink writes events through the structured logger.
type LogSink struct {
	l *applogger.Logger
}

func NewLogSink(l *applogger.Logger) *LogSink { return &LogSink{l: l} }

func (s *LogSink) Emit(e Event) {
	switch e.Kind {
	case EventProviderSucceeded:
		s.l.Info("sentiment provider ok",
			applogger.String("symbol", e.Symbol),
			applogger.String("provider", e.Provider),
			applogger.Int("items", e.Items),
			applogger.Int("attempt", e.Attempt),
			applogger.Duration("latency_ms", e.Latency),
		)
	case EventProviderRetry:
		s.l.Warn("sentiment provider retry",
			applogger.String("symbol", e.Symbol),
			applogger.String("provider", e.Provider),
			applogger.Int("attempt", e.Attempt),
			applogger.Duration("wait_ms", e.Wait),
			applogger.Error(e.Err),
		)
	case EventProviderFailed:
		s.l.Warn("sentiment provider failed",
			applogger.String("symbol", e.Symbol),
			applogger.String("provider", e.Provider),
			applogger.Int("attempts", e.Attempt),
			applogger.Duration("latency_ms", e.Latency),
			applogger.Error(e.Err),
		)
	case EventAggregated:
		s.l.Info("sentiment aggregated",
			applogger.String("symbol", e.Symbol),
			applogger.Int("sources", e.Items),
			applogger.Float64("value", e.Value),
		)
	}
}

// MetricsSink records provider outcomes on the metrics recorder.
type MetricsSink struct {
	m domrepo.Metrics
}

func NewMetricsSink(m domrepo.Metrics) *MetricsSink { return &MetricsSink{m: m} }

func (s *MetricsSink) Emit(e Event) {
	switch e.Kind {
	case EventProviderSucceeded:
		s.m.RecordProviderResult(e.Provider, e.Items, nil)
		s.m.RecordProviderLatency(e.Provider, e.Latency.Seconds())
	case EventProviderFailed:
		s.m.RecordProviderResult(e.Provider, 0, e.Err)
		s.m.RecordProviderLatency(e.Provider, e.Latency.Seconds())
	case EventProviderRetry:
		s.m.RecordRetry(e.Provider)
	}
}
