package providers

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/domain/service"
	"StockSignal/pkg/config"

	"github.com/PuerkitoBio/goquery"
)

const finvizUserAgent = "Mozilla/5.0 (compatible; StockSignal/1.0)"

// Finviz scrapes the quote page news table and scores the headlines.
type Finviz struct {
	base
	baseURL     string
	maxArticles int
}

var _ domrepo.SentimentProvider = (*Finviz)(nil)

func NewFinviz(cfg config.FinvizConfig, timeout time.Duration, scorer service.PolarityScorer) *Finviz {
	return &Finviz{
		base:        newBase("finviz", scorer, timeout, cfg.RateLimit, finvizUserAgent),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		maxArticles: cfg.MaxArticles,
	}
}

func (f *Finviz) FetchSentiment(ctx context.Context, symbol, displayName string) ([]float64, error) {
	var body []byte
	if err := f.get(ctx, f.baseURL+"/quote.ashx", map[string][]string{"t": {symbol}}, nil, &body); err != nil {
		return nil, err
	}
	headlines, err := parseFinvizHeadlines(body, f.maxArticles)
	if err != nil {
		return nil, fmt.Errorf("finviz: %w", err)
	}
	return f.score(ctx, headlines)
}

func parseFinvizHeadlines(page []byte, limit int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	var out []string
	doc.Find("#news-table a.tab-link-news").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
		return limit <= 0 || len(out) < limit
	})
	return out, nil
}
