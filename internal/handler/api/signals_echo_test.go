package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/service/ratelimit"
	"StockSignal/pkg/cache"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeAnalyzer) AnalyzeSymbol(_ context.Context, symbol string) (models.Signal, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.Signal{}, f.err
	}
	return models.Signal{Symbol: symbol, Band: models.BandBuy, CombinedScore: 0.5, Confidence: 50}, nil
}

func (f *fakeAnalyzer) AnalyzeSymbols(_ context.Context, symbols []string) *models.Report {
	r := &models.Report{RunID: "r1"}
	for _, s := range symbols {
		r.Signals = append(r.Signals, models.Signal{Symbol: s, Band: models.BandHold})
	}
	return r
}

type fixedReport struct{ r *models.Report }

func (f fixedReport) Get() *models.Report { return f.r }

type fakeStore struct {
	limit  int
	symbol string
	err    error
}

func (f *fakeStore) Save(context.Context, models.Signal) error { return nil }

func (f *fakeStore) History(_ context.Context, symbol string, limit int) ([]models.Signal, error) {
	f.symbol, f.limit = symbol, limit
	return []models.Signal{{Symbol: symbol}}, nil
}

func (f *fakeStore) Health(context.Context) error { return f.err }

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, h *SignalsEchoHandler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestLatestBeforeFirstRun(t *testing.T) {
	h := NewSignalsEchoHandler(nil, &fakeAnalyzer{}, fixedReport{})
	rec, _ := serve(t, h, http.MethodGet, "/api/signals", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestReturnsSummary(t *testing.T) {
	r := &models.Report{RunID: "abc", Signals: []models.Signal{{Symbol: "AAPL", Band: models.BandStrongBuy, CombinedScore: 0.9, Confidence: 90}}}
	h := NewSignalsEchoHandler(nil, &fakeAnalyzer{}, fixedReport{r})
	rec, env := serve(t, h, http.MethodGet, "/api/signals", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var data struct {
		Report  models.Report  `json:"report"`
		Summary models.Summary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "abc", data.Report.RunID)
	assert.Equal(t, 1, data.Summary.Buy)
	require.NotNil(t, data.Summary.TopPick)
	assert.Equal(t, "AAPL", data.Summary.TopPick.Symbol)
}

func TestSymbolUsesResponseCache(t *testing.T) {
	fa := &fakeAnalyzer{}
	mc := cache.NewMemoryCache()
	defer mc.Close()
	h := NewSignalsEchoHandler(nil, fa, fixedReport{}, WithResponseCache(mc, time.Minute))

	rec, env := serve(t, h, http.MethodGet, "/api/signals/aapl", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	var sig models.Signal
	require.NoError(t, json.Unmarshal(env.Data, &sig))
	assert.Equal(t, "AAPL", sig.Symbol)

	rec, _ = serve(t, h, http.MethodGet, "/api/signals/AAPL", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, int32(1), fa.calls.Load())
}

func TestSymbolErrorMapping(t *testing.T) {
	fa := &fakeAnalyzer{err: fmt.Errorf("analyze ZZZ: %w", domrepo.ErrNoData)}
	h := NewSignalsEchoHandler(nil, fa, fixedReport{})
	rec, _ := serve(t, h, http.MethodGet, "/api/signals/ZZZ", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	fa.err = errors.New("boom")
	rec, env := serve(t, h, http.MethodGet, "/api/signals/MSFT", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, string(env.Data), "boom")
}

func TestSymbolValidation(t *testing.T) {
	h := NewSignalsEchoHandler(nil, &fakeAnalyzer{}, fixedReport{})
	rec, _ := serve(t, h, http.MethodGet, "/api/signals/WAYTOOLONGSYMBOL", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistory(t *testing.T) {
	store := &fakeStore{}
	h := NewSignalsEchoHandler(nil, &fakeAnalyzer{}, fixedReport{}, WithHistoryStore(store))

	rec, _ := serve(t, h, http.MethodGet, "/api/signals/tsla/history?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TSLA", store.symbol)
	assert.Equal(t, 5, store.limit)

	_, _ = serve(t, h, http.MethodGet, "/api/signals/tsla/history", "")
	assert.Equal(t, 50, store.limit)

	rec, _ = serve(t, h, http.MethodGet, "/api/signals/tsla/history?limit=5000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryWithoutStore(t *testing.T) {
	h := NewSignalsEchoHandler(nil, &fakeAnalyzer{}, fixedReport{})
	rec, _ := serve(t, h, http.MethodGet, "/api/signals/tsla/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAnalyze(t *testing.T) {
	h := NewSignalsEchoHandler(nil, &fakeAnalyzer{}, fixedReport{})

	rec, env := serve(t, h, http.MethodPost, "/api/analyze", `{"symbols":["AAPL","MSFT"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var data struct {
		Report models.Report `json:"report"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Len(t, data.Report.Signals, 2)

	rec, _ = serve(t, h, http.MethodPost, "/api/analyze", `{"symbols":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	store := &fakeStore{}
	h := NewSignalsEchoHandler(nil, &fakeAnalyzer{}, fixedReport{}, WithHistoryStore(store))
	rec, _ := serve(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	store.err = errors.New("connection refused")
	rec, _ = serve(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := NewSignalsEchoHandler(nil, &fakeAnalyzer{}, fixedReport{}, WithRateLimit(ratelimit.New(), 1, 0.001))
	e := echo.New()
	h.RegisterRoutes(e)

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/signals/AAPL", nil))
		codes[i] = rec.Code
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
