package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/services/technical"
	applogger "StockSignal/pkg/logger"
	"StockSignal/pkg/util"

	"github.com/google/uuid"
)

// SentimentSource pools provider opinions for one instrument.
type SentimentSource interface {
	Aggregate(ctx context.Context, symbol, displayName string) models.SentimentMeasurement
}

// SignalClassifier fuses measurements into a Signal.
type SignalClassifier interface {
	Classify(symbol, displayName string, s models.SentimentMeasurement, t models.TechnicalMeasurement, ind models.Indicators) models.Signal
}

type AnalyzerOption func(*Analyzer)

// WithWorkers bounds how many symbols are analysed at once.
func WithWorkers(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithSymbolTimeout(d time.Duration) AnalyzerOption {
	return func(a *Analyzer) {
		if d > 0 {
			a.symbolTimeout = d
		}
	}
}

// WithDisplayNames resolves a symbol to the name used in provider queries.
func WithDisplayNames(fn func(string) string) AnalyzerOption {
	return func(a *Analyzer) {
		if fn != nil {
			a.displayName = fn
		}
	}
}

func WithSinks(sinks ...domrepo.SignalSink) AnalyzerOption {
	return func(a *Analyzer) { a.sinks = append(a.sinks, sinks...) }
}

func WithAnalyzerMetrics(m domrepo.Metrics) AnalyzerOption {
	return func(a *Analyzer) {
		if m != nil {
			a.metrics = m
		}
	}
}

func WithAnalyzerLogger(l *applogger.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.l = l
		}
	}
}

func WithAnalyzerClock(now func() time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		if now != nil {
			a.now = now
		}
	}
}

// Analyzer turns a symbol into a Signal: sentiment and prices are gathered
// concurrently, then scored, classified and handed to every sink.
type Analyzer struct {
	sentiment  SentimentSource
	market     domrepo.MarketData
	engine     *technical.Engine
	scorer     *technical.Scorer
	classifier SignalClassifier
	watchlist  []string

	workers       int
	symbolTimeout time.Duration
	displayName   func(string) string
	sinks         []domrepo.SignalSink
	metrics       domrepo.Metrics
	l             *applogger.Logger
	now           func() time.Time
}

func NewAnalyzer(
	sentiment SentimentSource,
	market domrepo.MarketData,
	engine *technical.Engine,
	scorer *technical.Scorer,
	classifier SignalClassifier,
	watchlist []string,
	opts ...AnalyzerOption,
) *Analyzer {
	a := &Analyzer{
		sentiment:     sentiment,
		market:        market,
		engine:        engine,
		scorer:        scorer,
		classifier:    classifier,
		watchlist:     util.UniqueSymbols(watchlist),
		workers:       2,
		symbolTimeout: 2 * time.Minute,
		displayName:   func(s string) string { return s },
		metrics:       nopMetrics{},
		l:             applogger.Nop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Watchlist returns the configured symbols in order.
func (a *Analyzer) Watchlist() []string {
	return append([]string(nil), a.watchlist...)
}

// AnalyzeSymbol produces one Signal. Missing price data or too short a history
// aborts the symbol; a silent sentiment side does not.
func (a *Analyzer) AnalyzeSymbol(ctx context.Context, symbol string) (models.Signal, error) {
	symbol = util.NormalizeSymbol(symbol)
	if symbol == "" {
		return models.Signal{}, errors.New("empty symbol")
	}
	start := time.Now()
	name := a.displayName(symbol)

	sctx, cancel := context.WithTimeout(ctx, a.symbolTimeout)
	defer cancel()

	var (
		wg        sync.WaitGroup
		sentiment models.SentimentMeasurement
		ind       models.Indicators
		priceErr  error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		sentiment = a.sentiment.Aggregate(sctx, symbol, name)
	}()
	go func() {
		defer wg.Done()
		series, err := a.market.GetPriceHistory(sctx, symbol)
		if err != nil {
			priceErr = err
			cancel()
			return
		}
		ind, priceErr = a.engine.Compute(series)
		if priceErr != nil {
			cancel()
		}
	}()
	wg.Wait()

	if priceErr != nil {
		a.metrics.RecordError("analyze_price")
		return models.Signal{}, fmt.Errorf("analyze %s: %w", symbol, priceErr)
	}

	tech := a.scorer.Score(ind)
	sig := a.classifier.Classify(symbol, name, sentiment, tech, ind)

	a.fanOut(ctx, sig)
	a.metrics.RecordSignal(sig.Symbol, sig.Band, sig.CombinedScore)
	a.metrics.RecordLatency("analyze_symbol", time.Since(start).Seconds())
	a.l.Info("signal generated",
		applogger.String("symbol", sig.Symbol),
		applogger.String("band", string(sig.Band)),
		applogger.Float64("combined", sig.CombinedScore),
		applogger.Int("sources", sig.Sentiment.SourceCount),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return sig, nil
}

// fanOut delivers sig to every sink. Sink failures are logged only.
func (a *Analyzer) fanOut(ctx context.Context, sig models.Signal) {
	for _, s := range a.sinks {
		if err := s.Consume(ctx, sig); err != nil {
			a.metrics.RecordError("sink_" + s.Name())
			a.l.Warn("signal sink failed",
				applogger.String("sink", s.Name()),
				applogger.String("symbol", sig.Symbol),
				applogger.Error(err),
			)
		}
	}
}

// AnalyzeWatchlist runs AnalyzeSymbols over the configured watchlist.
func (a *Analyzer) AnalyzeWatchlist(ctx context.Context) *models.Report {
	return a.AnalyzeSymbols(ctx, a.watchlist)
}

// AnalyzeSymbols analyses symbols on a bounded worker pool.
// Signals and failures keep the input order.
func (a *Analyzer) AnalyzeSymbols(ctx context.Context, symbols []string) *models.Report {
	symbols = util.UniqueSymbols(symbols)
	report := &models.Report{RunID: uuid.NewString(), StartedAt: a.now().UTC()}

	type outcome struct {
		sig models.Signal
		err error
	}
	results := make([]outcome, len(symbols))
	jobs := make(chan int)

	workers := a.workers
	if workers > len(symbols) {
		workers = len(symbols)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					results[i] = outcome{err: err}
					continue
				}
				sig, err := a.AnalyzeSymbol(ctx, symbols[i])
				results[i] = outcome{sig: sig, err: err}
			}
		}()
	}
	for i := range symbols {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, r := range results {
		if r.err != nil {
			a.l.Warn("symbol skipped", applogger.String("symbol", symbols[i]), applogger.Error(r.err))
			report.Failures = append(report.Failures, models.Failure{Symbol: symbols[i], Reason: r.err.Error()})
			continue
		}
		report.Signals = append(report.Signals, r.sig)
	}
	report.FinishedAt = a.now().UTC()
	a.metrics.RecordLatency("analyze_watchlist", report.FinishedAt.Sub(report.StartedAt).Seconds())
	return report
}

type nopMetrics struct{}

func (nopMetrics) RecordProviderResult(string, int, error)   {}
func (nopMetrics) RecordProviderLatency(string, float64)     {}
func (nopMetrics) RecordRetry(string)                        {}
func (nopMetrics) RecordSignal(string, models.Band, float64) {}
func (nopMetrics) RecordError(string)                        {}
func (nopMetrics) RecordLatency(string, float64)             {}
