package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	pkgch "StockSignal/pkg/clickhouse"
	applogger "StockSignal/pkg/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// CHCandleSource reads daily closes from a ClickHouse candles table
// (day Date, symbol String, close Float64, volume Float64).
type CHCandleSource struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
	now   func() time.Time
}

var _ domrepo.PriceSource = (*CHCandleSource)(nil)

func NewCHCandleSource(ch *pkgch.Client, table string, l *applogger.Logger) (*CHCandleSource, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid candles table name %q", table)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHCandleSource{db: ch.DB(), table: table, l: l, now: time.Now}, nil
}

func (s *CHCandleSource) Name() string { return "clickhouse" }

func (s *CHCandleSource) FetchPriceHistory(ctx context.Context, symbol string, lookback domrepo.Lookback) (models.PriceSeries, error) {
	start := time.Now()
	from := s.now().AddDate(0, -int(lookback.Normalize()), 0)
	q := fmt.Sprintf(`
        SELECT day, close, volume
        FROM %s
        WHERE symbol = ? AND day >= ?
        ORDER BY day ASC
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, from)
	if err != nil {
		s.l.Error("clickhouse candles query error",
			applogger.String("table", s.table),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("get candles: %w", err)
	}
	defer rows.Close()

	var out models.PriceSeries
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Time, &b.Close, &b.Volume); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse candles ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	if len(out) == 0 {
		return nil, fmt.Errorf("clickhouse %s: %w", symbol, domrepo.ErrNoData)
	}
	return out, nil
}
