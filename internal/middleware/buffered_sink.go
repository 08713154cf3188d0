package middleware

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
)

// BufferedSink sits between the analyzer and a downstream sink (Kafka, ClickHouse).
// It validates and optionally throttles signals, and buffers them while the
// downstream is unavailable.
type BufferedSink struct {
	next        domrepo.SignalSink
	metrics     domrepo.Metrics
	minInterval time.Duration
	bufCh       chan models.Signal
	stopCh      chan struct{}
	doneCh      chan struct{}
	now         func() time.Time

	mu       sync.Mutex
	started  bool
	stopped  bool
	lastSeen map[string]time.Time
}

type BufferedSinkOption func(*BufferedSink)

// WithBufferSize sets how many signals are held while downstream fails.
func WithBufferSize(n int) BufferedSinkOption {
	return func(b *BufferedSink) {
		if n > 0 {
			b.bufCh = make(chan models.Signal, n)
		}
	}
}

// WithMinInterval drops signals for a symbol arriving sooner than d after the last accepted one.
func WithMinInterval(d time.Duration) BufferedSinkOption {
	return func(b *BufferedSink) { b.minInterval = d }
}

func NewBufferedSink(next domrepo.SignalSink, metrics domrepo.Metrics, opts ...BufferedSinkOption) *BufferedSink {
	b := &BufferedSink{
		next:     next,
		metrics:  metrics,
		bufCh:    make(chan models.Signal, 256),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BufferedSink) Name() string { return b.next.Name() }

// Start launches background flushing of buffered signals. A sink is
// single-use: Start after Stop does nothing.
func (b *BufferedSink) Start(ctx context.Context) {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return
	}
	b.started = true
	b.mu.Unlock()

	go func() {
		defer close(b.doneCh)
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-b.stopCh:
				return
			case <-ctx.Done():
				return
			case s := <-b.bufCh:
				if err := b.next.Consume(ctx, s); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					b.metrics.RecordError("sink_flush_" + b.Name())
					select {
					case <-time.After(backoff):
					case <-b.stopCh:
						return
					}
					select {
					case b.bufCh <- s:
					default:
						b.metrics.RecordError("sink_buffer_drop_" + b.Name())
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop ends background flushing; buffered signals that were not delivered are dropped.
func (b *BufferedSink) Stop() {
	b.mu.Lock()
	if !b.started || b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	b.mu.Unlock()
	close(b.stopCh)
	<-b.doneCh
}

// Pending returns the number of buffered signals.
func (b *BufferedSink) Pending() int { return len(b.bufCh) }

// Consume validates, throttles and forwards s. On a downstream error s is
// buffered for a later attempt and the error is returned.
func (b *BufferedSink) Consume(ctx context.Context, s models.Signal) error {
	start := time.Now()
	if err := validateSignal(s); err != nil {
		b.metrics.RecordError("sink_validate")
		return err
	}
	if !b.allow(s.Symbol, b.now()) {
		b.metrics.RecordError("sink_throttle")
		return nil
	}

	if err := b.next.Consume(ctx, s); err != nil {
		select {
		case b.bufCh <- s:
		default:
			b.metrics.RecordError("sink_buffer_full_" + b.Name())
		}
		return fmt.Errorf("%s downstream: %w", b.Name(), err)
	}
	b.metrics.RecordLatency("sink_"+b.Name(), time.Since(start).Seconds())
	return nil
}

func validateSignal(s models.Signal) error {
	if s.Symbol == "" {
		return fmt.Errorf("signal symbol empty")
	}
	if s.Timestamp.IsZero() {
		return fmt.Errorf("signal timestamp missing")
	}
	if math.IsNaN(s.CombinedScore) || s.CombinedScore < -1 || s.CombinedScore > 1 {
		return fmt.Errorf("signal score out of range: %v", s.CombinedScore)
	}
	return nil
}

func (b *BufferedSink) allow(symbol string, now time.Time) bool {
	if b.minInterval <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	last, ok := b.lastSeen[symbol]
	if ok && now.Sub(last) < b.minInterval {
		return false
	}
	b.lastSeen[symbol] = now
	return true
}
