package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/service/metrics"
	"StockSignal/internal/service/ratelimit"
	"StockSignal/internal/services/technical"
	"StockSignal/pkg/cache"
	xhttp "StockSignal/pkg/http"
	xlogger "StockSignal/pkg/logger"
	"StockSignal/pkg/util"

	"github.com/labstack/echo/v4"
)

// Analyzer is what the API needs from the analysis use case.
type Analyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) (models.Signal, error)
	AnalyzeSymbols(ctx context.Context, symbols []string) *models.Report
}

// ReportSource returns the latest watchlist report, or nil.
type ReportSource interface {
	Get() *models.Report
}

type HandlerOption func(*SignalsEchoHandler)

func WithHistoryStore(s domrepo.SignalStore) HandlerOption {
	return func(h *SignalsEchoHandler) { h.store = s }
}

// WithResponseCache caches on-demand symbol analyses for ttl.
func WithResponseCache(c cache.Service, ttl time.Duration) HandlerOption {
	return func(h *SignalsEchoHandler) {
		if c != nil && ttl > 0 {
			h.cache = c
			h.cacheTTL = ttl
		}
	}
}

// WithRateLimit applies a per-client token bucket to every /api route.
func WithRateLimit(rl *ratelimit.Limiter, capacity, refillPerSec float64) HandlerOption {
	return func(h *SignalsEchoHandler) {
		h.rl = rl
		h.rlCapacity = capacity
		h.rlRefill = refillPerSec
	}
}

// SignalsEchoHandler serves signals over Echo.
type SignalsEchoHandler struct {
	logger   *xlogger.Logger
	analyzer Analyzer
	latest   ReportSource
	store    domrepo.SignalStore
	cache    cache.Service
	cacheTTL time.Duration

	rl         *ratelimit.Limiter
	rlCapacity float64
	rlRefill   float64
}

func NewSignalsEchoHandler(logger *xlogger.Logger, analyzer Analyzer, latest ReportSource, opts ...HandlerOption) *SignalsEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	metrics.Register()
	h := &SignalsEchoHandler{logger: logger, analyzer: analyzer, latest: latest}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	if h.rl != nil {
		g.Use(h.rl.Middleware(h.rlCapacity, h.rlRefill))
	}
	g.GET("/signals", h.Latest)
	g.GET("/signals/:symbol", h.Symbol)
	g.GET("/signals/:symbol/history", h.History)
	g.POST("/analyze", h.Analyze)
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// Latest returns the most recent scheduled report with its summary.
func (h *SignalsEchoHandler) Latest(c echo.Context) error {
	defer observe("latest", time.Now())

	r := h.latest.Get()
	if r == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no report yet"))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"report":  r,
		"summary": r.Summarize(),
	})
}

// Symbol analyses one symbol on demand.
func (h *SignalsEchoHandler) Symbol(c echo.Context) error {
	defer observe("symbol", time.Now())

	req := &models.SymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	symbol := util.NormalizeSymbol(req.Symbol)
	ctx := c.Request().Context()

	key := cache.GenerateKeyWithParams("signal", symbol)
	if h.cache != nil {
		var cached models.Signal
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			c.Response().Header().Set("X-Cache", "HIT")
			return xhttp.SuccessResponse(c, cached)
		}
	}

	sig, err := h.analyzer.AnalyzeSymbol(ctx, symbol)
	if err != nil {
		return h.fail(c, "symbol", err)
	}
	if h.cache != nil {
		if err := h.cache.Set(ctx, key, sig, h.cacheTTL); err != nil {
			h.logger.Warn("signal cache set failed", xlogger.String("symbol", symbol), xlogger.Error(err))
		}
		c.Response().Header().Set("X-Cache", "MISS")
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, sig)
}

// History lists stored signals for a symbol, newest first.
func (h *SignalsEchoHandler) History(c echo.Context) error {
	defer observe("history", time.Now())

	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("signal history is not enabled"))
	}
	res, err := h.store.History(c.Request().Context(), util.NormalizeSymbol(req.Symbol), req.Limit)
	if err != nil {
		return h.fail(c, "history", err)
	}
	if res == nil {
		res = []models.Signal{}
	}
	return xhttp.SuccessResponse(c, res)
}

// Analyze runs a batch of symbols and returns the report.
func (h *SignalsEchoHandler) Analyze(c echo.Context) error {
	defer observe("analyze", time.Now())

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r := h.analyzer.AnalyzeSymbols(c.Request().Context(), req.Symbols)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"report":  r,
		"summary": r.Summarize(),
	})
}

// Health reports liveness, and history store reachability when one is configured.
func (h *SignalsEchoHandler) Health(c echo.Context) error {
	out := map[string]string{"status": "ok"}
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Health(ctx); err != nil {
			out["status"] = "degraded"
			out["clickhouse"] = err.Error()
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, out)
		}
		out["clickhouse"] = "ok"
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *SignalsEchoHandler) fail(c echo.Context, endpoint string, err error) error {
	metrics.APIErrors.WithLabelValues(endpoint).Inc()
	switch {
	case errors.Is(err, domrepo.ErrNoData), errors.Is(err, technical.ErrUnavailable), errors.Is(err, domrepo.ErrNotFound):
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	default:
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("analysis failed").WithError(err))
	}
}
