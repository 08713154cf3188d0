package repository

import (
	"context"
	"errors"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/pkg/cache"
)

const priceKeyPrefix = "price"

type cachedSeries struct {
	FetchedAt time.Time          `json:"fetched_at"`
	Bars      models.PriceSeries `json:"bars"`
}

// CachePriceCache stores series in a pkg/cache Service (Redis in production).
// Entries expire after ttl; Load additionally checks the stored fetch time.
type CachePriceCache struct {
	c   cache.Service
	ttl time.Duration
	now func() time.Time
}

var _ domrepo.PriceCache = (*CachePriceCache)(nil)

func NewCachePriceCache(c cache.Service, ttl time.Duration) *CachePriceCache {
	return &CachePriceCache{c: c, ttl: ttl, now: time.Now}
}

func (p *CachePriceCache) Load(ctx context.Context, key string, maxAge time.Duration) (models.PriceSeries, bool, error) {
	var cs cachedSeries
	if err := p.c.Get(ctx, cache.GenerateKeyWithParams(priceKeyPrefix, key), &cs); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if p.now().Sub(cs.FetchedAt) >= maxAge {
		return nil, false, nil
	}
	return cs.Bars, true, nil
}

func (p *CachePriceCache) Store(ctx context.Context, key string, series models.PriceSeries) error {
	return p.c.Set(ctx, cache.GenerateKeyWithParams(priceKeyPrefix, key), cachedSeries{FetchedAt: p.now(), Bars: series}, p.ttl)
}

func (p *CachePriceCache) Clear(ctx context.Context, symbol string) error {
	pattern := cache.BuildPattern(priceKeyPrefix + ":")
	if symbol != "" {
		pattern = cache.BuildPattern(cache.GenerateKeyWithParams(priceKeyPrefix, symbol) + "_")
	}
	return p.c.DeleteByPattern(ctx, pattern)
}

// NopPriceCache never hits; used when caching is disabled.
type NopPriceCache struct{}

func (NopPriceCache) Load(context.Context, string, time.Duration) (models.PriceSeries, bool, error) {
	return nil, false, nil
}
func (NopPriceCache) Store(context.Context, string, models.PriceSeries) error { return nil }
func (NopPriceCache) Clear(context.Context, string) error                     { return nil }
