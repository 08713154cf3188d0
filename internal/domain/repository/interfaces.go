package repository

import (
	"context"
	"errors"
	"time"

	"StockSignal/internal/domain/models"
)

var (
	// ErrNoData is returned when a price source has nothing for a symbol.
	ErrNoData = errors.New("no market data")
	// ErrNotFound is returned by lookups with no matching record.
	ErrNotFound = errors.New("not found")
)

// SentimentProvider fetches raw polarities about one instrument.
// An empty slice is a valid answer; an error means the provider failed.
type SentimentProvider interface {
	Name() string
	FetchSentiment(ctx context.Context, symbol, displayName string) ([]float64, error)
}

// MarketData returns recent daily history for a symbol, possibly cached.
type MarketData interface {
	GetPriceHistory(ctx context.Context, symbol string) (models.PriceSeries, error)
	ClearCache(ctx context.Context, symbol string) error
}

// PriceSource is an upstream of daily bars.
type PriceSource interface {
	Name() string
	FetchPriceHistory(ctx context.Context, symbol string, lookback Lookback) (models.PriceSeries, error)
}

// PriceCache stores series by key with an age-based freshness check.
type PriceCache interface {
	Load(ctx context.Context, key string, maxAge time.Duration) (models.PriceSeries, bool, error)
	Store(ctx context.Context, key string, series models.PriceSeries) error
	// Clear removes entries for symbol, or everything when symbol is empty.
	Clear(ctx context.Context, symbol string) error
}

type SignalStore interface {
	Save(ctx context.Context, s models.Signal) error
	History(ctx context.Context, symbol string, limit int) ([]models.Signal, error)
	Health(ctx context.Context) error
}

type SignalPublisher interface {
	Publish(ctx context.Context, s models.Signal) error
	Close() error
}

// SignalSink receives every classified signal.
type SignalSink interface {
	Name() string
	Consume(ctx context.Context, s models.Signal) error
}

type Metrics interface {
	RecordProviderResult(provider string, items int, err error)
	RecordProviderLatency(provider string, seconds float64)
	RecordRetry(provider string)
	RecordSignal(symbol string, band models.Band, score float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
