package providers

import (
	"context"
	"strings"
	"time"

	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/domain/service"
	"StockSignal/pkg/config"
)

type finnhubArticle struct {
	Headline string `json:"headline"`
	Summary  string `json:"summary"`
}

// Finnhub scores recent company news headlines and summaries.
type Finnhub struct {
	base
	apiKey       string
	baseURL      string
	maxArticles  int
	lookbackDays int
}

var _ domrepo.SentimentProvider = (*Finnhub)(nil)

func NewFinnhub(cfg config.FinnhubConfig, timeout time.Duration, scorer service.PolarityScorer) *Finnhub {
	return &Finnhub{
		base:         newBase("finnhub", scorer, timeout, cfg.RateLimit, ""),
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxArticles:  cfg.MaxArticles,
		lookbackDays: cfg.LookbackDays,
	}
}

func (f *Finnhub) FetchSentiment(ctx context.Context, symbol, displayName string) ([]float64, error) {
	now := f.now()
	var articles []finnhubArticle
	err := f.get(ctx, f.baseURL+"/company-news", map[string][]string{
		"symbol": {symbol},
		"from":   {dateOnly(now.AddDate(0, 0, -f.lookbackDays))},
		"to":     {dateOnly(now)},
		"token":  {f.apiKey},
	}, nil, &articles)
	if err != nil {
		return nil, err
	}

	if f.maxArticles > 0 && len(articles) > f.maxArticles {
		articles = articles[:f.maxArticles]
	}
	texts := make([]string, 0, len(articles))
	for _, a := range articles {
		if t := joinText(a.Headline, a.Summary); t != "" {
			texts = append(texts, t)
		}
	}
	return f.score(ctx, texts)
}
