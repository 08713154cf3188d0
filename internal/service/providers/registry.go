package providers

import (
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/domain/service"
	"StockSignal/pkg/config"
	applogger "StockSignal/pkg/logger"
)

// Build constructs every enabled provider that has the credentials it needs.
// Order is fixed (finnhub, newsapi, reddit, finviz) so results fold deterministically.
func Build(cfg config.ProvidersConfig, scorer service.PolarityScorer, l *applogger.Logger) []domrepo.SentimentProvider {
	if l == nil {
		l = applogger.Nop()
	}
	skip := func(name, reason string) {
		l.Warn("sentiment provider disabled", applogger.String("provider", name), applogger.String("reason", reason))
	}

	var out []domrepo.SentimentProvider
	switch {
	case !cfg.Finnhub.Enabled:
	case cfg.Finnhub.APIKey == "":
		skip("finnhub", "missing api key")
	default:
		out = append(out, NewFinnhub(cfg.Finnhub, cfg.Timeout, scorer))
	}

	switch {
	case !cfg.NewsAPI.Enabled:
	case cfg.NewsAPI.APIKey == "":
		skip("newsapi", "missing api key")
	default:
		out = append(out, NewNewsAPI(cfg.NewsAPI, cfg.Timeout, scorer))
	}

	switch {
	case !cfg.Reddit.Enabled:
	case cfg.Reddit.ClientID == "" || cfg.Reddit.ClientSecret == "":
		skip("reddit", "missing client credentials")
	default:
		out = append(out, NewReddit(cfg.Reddit, cfg.Timeout, scorer, l))
	}

	if cfg.Finviz.Enabled {
		out = append(out, NewFinviz(cfg.Finviz, cfg.Timeout, scorer))
	}
	return out
}
