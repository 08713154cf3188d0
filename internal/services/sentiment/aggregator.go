package sentiment

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
)

type AggregatorOption func(*Aggregator)

func WithRetryPolicy(p RetryPolicy) AggregatorOption {
	return func(a *Aggregator) { a.policy = p }
}

// WithAttemptTimeout bounds every single provider attempt.
func WithAttemptTimeout(d time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		if d > 0 {
			a.attemptTimeout = d
		}
	}
}

func WithEventSink(s EventSink) AggregatorOption {
	return func(a *Aggregator) {
		if s != nil {
			a.sink = s
		}
	}
}

// Aggregator fans a symbol out to every provider and pools what comes back.
// A failing provider contributes nothing; it never fails the aggregation.
type Aggregator struct {
	providers      []domrepo.SentimentProvider
	policy         RetryPolicy
	attemptTimeout time.Duration
	sink           EventSink
}

func NewAggregator(providers []domrepo.SentimentProvider, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		providers:      providers,
		policy:         DefaultRetryPolicy(),
		attemptTimeout: 30 * time.Second,
		sink:           nopSink{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Providers returns the configured provider names in order.
func (a *Aggregator) Providers() []string {
	out := make([]string, len(a.providers))
	for i, p := range a.providers {
		out[i] = p.Name()
	}
	return out
}

type providerResult struct {
	values []float64
	err    error
}

// Aggregate returns the pooled mean over every item from every provider.
// PerProvider holds each contributing provider's own mean, for reporting only.
func (a *Aggregator) Aggregate(ctx context.Context, symbol, displayName string) models.SentimentMeasurement {
	type item struct {
		idx int
		res providerResult
	}
	ch := make(chan item, len(a.providers))
	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(i int, p domrepo.SentimentProvider) {
			defer wg.Done()
			ch <- item{i, a.fetch(ctx, p, symbol, displayName)}
		}(i, p)
	}
	go func() { wg.Wait(); close(ch) }()

	// fold in provider order so the pooled sum does not depend on completion order
	results := make([]providerResult, len(a.providers))
	for it := range ch {
		results[it.idx] = it.res
	}

	var (
		sum   float64
		count int
		per   = make(map[string]float64)
		sums  = make(map[string]float64)
		ns    = make(map[string]int)
	)
	for i, r := range results {
		if r.err != nil || len(r.values) == 0 {
			continue
		}
		name := a.providers[i].Name()
		for _, v := range r.values {
			sum += v
			sums[name] += v
		}
		count += len(r.values)
		ns[name] += len(r.values)
	}
	for name, n := range ns {
		per[name] = sums[name] / float64(n)
	}

	m := models.SentimentMeasurement{SourceCount: count, PerProvider: per}
	if count > 0 {
		m.Value = sum / float64(count)
	}
	a.sink.Emit(Event{Kind: EventAggregated, Symbol: symbol, Items: count, Value: m.Value})
	return m
}

func (a *Aggregator) fetch(ctx context.Context, p domrepo.SentimentProvider, symbol, displayName string) providerResult {
	name := p.Name()
	start := time.Now()
	var (
		values  []float64
		attempt int
	)
	err := a.policy.Do(ctx, func(ctx context.Context, n int) error {
		attempt = n
		actx, cancel := context.WithTimeout(ctx, a.attemptTimeout)
		defer cancel()

		vs, err := callProvider(actx, p, symbol, displayName)
		if err != nil {
			return err
		}
		values = vs
		return nil
	}, func(n int, err error, wait time.Duration) {
		a.sink.Emit(Event{Kind: EventProviderRetry, Symbol: symbol, Provider: name, Attempt: n, Wait: wait, Err: err})
	})

	if err != nil {
		a.sink.Emit(Event{Kind: EventProviderFailed, Symbol: symbol, Provider: name, Attempt: attempt, Latency: time.Since(start), Err: err})
		return providerResult{err: err}
	}

	values = sanitize(values)
	a.sink.Emit(Event{Kind: EventProviderSucceeded, Symbol: symbol, Provider: name, Items: len(values), Attempt: attempt, Latency: time.Since(start)})
	return providerResult{values: values}
}

// callProvider enforces the attempt deadline even when a provider ignores ctx,
// and turns a provider panic into an error.
func callProvider(ctx context.Context, p domrepo.SentimentProvider, symbol, displayName string) ([]float64, error) {
	type out struct {
		vs  []float64
		err error
	}
	ch := make(chan out, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- out{err: fmt.Errorf("provider %s panicked: %v", p.Name(), r)}
			}
		}()
		vs, err := p.FetchSentiment(ctx, symbol, displayName)
		ch <- out{vs: vs, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("provider %s: %w", p.Name(), ctx.Err())
	case o := <-ch:
		return o.vs, o.err
	}
}

// sanitize drops non-finite values and clamps the rest into [-1, 1].
func sanitize(vs []float64) []float64 {
	out := vs[:0:0]
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, math.Max(-1, math.Min(1, v)))
	}
	return out
}
