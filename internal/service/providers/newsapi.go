package providers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/domain/service"
	"StockSignal/pkg/config"
)

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"articles"`
}

// NewsAPI scores articles matching the company name or ticker.
type NewsAPI struct {
	base
	apiKey       string
	baseURL      string
	maxArticles  int
	lookbackDays int
}

var _ domrepo.SentimentProvider = (*NewsAPI)(nil)

func NewNewsAPI(cfg config.NewsAPIConfig, timeout time.Duration, scorer service.PolarityScorer) *NewsAPI {
	return &NewsAPI{
		base:         newBase("newsapi", scorer, timeout, cfg.RateLimit, ""),
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		maxArticles:  cfg.MaxArticles,
		lookbackDays: cfg.LookbackDays,
	}
}

func (n *NewsAPI) FetchSentiment(ctx context.Context, symbol, displayName string) ([]float64, error) {
	if displayName == "" {
		displayName = symbol
	}
	var resp newsAPIResponse
	err := n.get(ctx, n.baseURL+"/everything", map[string][]string{
		"q":        {fmt.Sprintf("%q OR %s", displayName, symbol)},
		"from":     {dateOnly(n.now().AddDate(0, 0, -n.lookbackDays))},
		"language": {"en"},
		"pageSize": {strconv.Itoa(n.maxArticles)},
	}, map[string]string{"X-Api-Key": n.apiKey}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Status == "error" {
		return nil, fmt.Errorf("newsapi: %s: %s", resp.Code, resp.Message)
	}

	texts := make([]string, 0, len(resp.Articles))
	for i, a := range resp.Articles {
		if n.maxArticles > 0 && i >= n.maxArticles {
			break
		}
		if t := joinText(a.Title, a.Description); t != "" {
			texts = append(texts, t)
		}
	}
	return n.score(ctx, texts)
}
