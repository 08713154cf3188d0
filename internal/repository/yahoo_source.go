package repository

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	xhttp "StockSignal/pkg/http"
	"StockSignal/pkg/util"
)

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooSource reads daily bars from the public v8 chart endpoint.
type YahooSource struct {
	baseURL string
	client  *xhttp.Client
}

var _ domrepo.PriceSource = (*YahooSource)(nil)

func NewYahooSource(baseURL string, timeout time.Duration) *YahooSource {
	return &YahooSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout), xhttp.WithUserAgent("Mozilla/5.0 (compatible; StockSignal/1.0)")),
	}
}

func (y *YahooSource) Name() string { return "yahoo" }

func (y *YahooSource) FetchPriceHistory(ctx context.Context, symbol string, lookback domrepo.Lookback) (models.PriceSeries, error) {
	var chart yahooChart
	err := y.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    y.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"range":    {lookback.Range()},
		},
	}, &chart)
	if err != nil {
		if se, ok := xhttp.AsStatusError(err); ok && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("yahoo %s: %w", symbol, domrepo.ErrNoData)
		}
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if e := chart.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, domrepo.ErrNoData)
	}

	res := chart.Chart.Result[0]
	q := res.Indicators.Quote[0]
	series := make(models.PriceSeries, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		c := *q.Close[i]
		if math.IsNaN(c) || c <= 0 {
			continue
		}
		var v float64
		if i < len(q.Volume) && q.Volume[i] != nil {
			v = *q.Volume[i]
		}
		series = append(series, models.PriceBar{Time: util.DayStart(time.Unix(ts, 0)), Close: c, Volume: v})
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, domrepo.ErrNoData)
	}
	return series, nil
}
