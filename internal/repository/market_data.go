package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	applogger "StockSignal/pkg/logger"
	"StockSignal/pkg/util"
)

type keyLock struct {
	ch   chan struct{}
	refs int
}

// MarketDataRepo serves price history from the cache while it is fresh and from
// the source otherwise. Concurrent requests for one key wait for a single fetch.
type MarketDataRepo struct {
	source   domrepo.PriceSource
	cache    domrepo.PriceCache
	lookback domrepo.Lookback
	maxAge   time.Duration
	l        *applogger.Logger

	mu    sync.Mutex
	locks map[string]*keyLock
}

var _ domrepo.MarketData = (*MarketDataRepo)(nil)

func NewMarketDataRepo(source domrepo.PriceSource, cache domrepo.PriceCache, lookback domrepo.Lookback, maxAge time.Duration, l *applogger.Logger) *MarketDataRepo {
	if cache == nil {
		cache = NopPriceCache{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &MarketDataRepo{
		source:   source,
		cache:    cache,
		lookback: lookback.Normalize(),
		maxAge:   maxAge,
		l:        l.With(applogger.String("repo", "market_data")),
		locks:    make(map[string]*keyLock),
	}
}

func cacheKey(symbol string, lookback domrepo.Lookback) string {
	return symbol + "_" + lookback.Range()
}

func (r *MarketDataRepo) GetPriceHistory(ctx context.Context, symbol string) (models.PriceSeries, error) {
	symbol = util.NormalizeSymbol(symbol)
	key := cacheKey(symbol, r.lookback)

	unlock, err := r.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	series, ok, err := r.cache.Load(ctx, key, r.maxAge)
	if err != nil {
		r.l.Warn("cache read failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	if ok && len(series) > 0 {
		r.l.Debug("loaded from cache", applogger.String("symbol", symbol), applogger.Int("bars", len(series)))
		return series, nil
	}

	series, err = r.source.FetchPriceHistory(ctx, symbol, r.lookback)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", symbol, r.source.Name(), err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("fetch %s from %s: %w", symbol, r.source.Name(), domrepo.ErrNoData)
	}
	if err := r.cache.Store(ctx, key, series); err != nil {
		r.l.Warn("cache write failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
	r.l.Debug("fetched and cached", applogger.String("symbol", symbol), applogger.Int("bars", len(series)))
	return series, nil
}

// ClearCache drops cached series for symbol, or for everything when symbol is empty.
func (r *MarketDataRepo) ClearCache(ctx context.Context, symbol string) error {
	symbol = util.NormalizeSymbol(symbol)
	if err := r.cache.Clear(ctx, symbol); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	r.l.Info("cache cleared", applogger.String("symbol", symbol))
	return nil
}

// lock acquires the per-key lock, giving up when ctx is done.
func (r *MarketDataRepo) lock(ctx context.Context, key string) (func(), error) {
	r.mu.Lock()
	kl, ok := r.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		r.locks[key] = kl
	}
	kl.refs++
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(r.locks, key)
		}
		r.mu.Unlock()
	}

	select {
	case kl.ch <- struct{}{}:
		return func() {
			<-kl.ch
			release()
		}, nil
	case <-ctx.Done():
		release()
		return nil, ctx.Err()
	}
}
