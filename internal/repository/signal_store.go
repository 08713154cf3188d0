package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	applogger "StockSignal/pkg/logger"
)

// Schema returns idempotent DDL for the signals and candles tables.
func Schema(signalsTable, candlesTable string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id String,
    ts DateTime64(3, 'UTC'),
    symbol LowCardinality(String),
    display_name String,
    band LowCardinality(String),
    combined_score Float64,
    confidence Float64,
    sentiment_value Float64,
    sentiment_sources UInt32,
    technical_value Float64,
    price Float64,
    week_change_pct Float64,
    rsi Float64,
    volume_ratio Float64,
    warnings Array(String),
    detail String
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, ts, id)`, signalsTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    day Date,
    symbol LowCardinality(String),
    close Float64,
    volume Float64
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, day)`, candlesTable),
	}
}

// signalDetail keeps the per-provider and per-rule breakdown that has no column of its own.
type signalDetail struct {
	PerProvider map[string]float64 `json:"per_provider,omitempty"`
	Components  map[string]float64 `json:"components,omitempty"`
}

// ClickHouseSignalStore appends signals to a ClickHouse table.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var _ domrepo.SignalStore = (*ClickHouseSignalStore)(nil)

func NewClickHouseSignalStore(db *sql.DB, table string, l *applogger.Logger) (*ClickHouseSignalStore, error) {
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid signals table name %q", table)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseSignalStore{db: db, table: table, l: l}, nil
}

func (s *ClickHouseSignalStore) Save(ctx context.Context, sig models.Signal) error {
	detail, err := json.Marshal(signalDetail{PerProvider: sig.Sentiment.PerProvider, Components: sig.Technical.Components})
	if err != nil {
		return fmt.Errorf("marshal signal detail: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s (id, ts, symbol, display_name, band, combined_score, confidence,
    sentiment_value, sentiment_sources, technical_value, price, week_change_pct, rsi, volume_ratio, warnings, detail)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)

	warnings := sig.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	_, err = s.db.ExecContext(ctx, q,
		sig.ID,
		sig.Timestamp,
		sig.Symbol,
		sig.DisplayName,
		string(sig.Band),
		sig.CombinedScore,
		sig.Confidence,
		sig.Sentiment.Value,
		uint32(sig.Sentiment.SourceCount),
		sig.Technical.Value,
		sig.Price,
		sig.WeekChangePct,
		sig.RSI,
		sig.VolumeRatio,
		warnings,
		string(detail),
	)
	if err != nil {
		s.l.Error("clickhouse insert signal error",
			applogger.String("table", s.table),
			applogger.String("symbol", sig.Symbol),
			applogger.Error(err),
		)
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

// History returns the newest signals for symbol, newest first.
func (s *ClickHouseSignalStore) History(ctx context.Context, symbol string, limit int) ([]models.Signal, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT id, ts, symbol, display_name, band, combined_score, confidence,
               sentiment_value, sentiment_sources, technical_value, price, week_change_pct, rsi, volume_ratio, warnings, detail
        FROM %s FINAL
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []models.Signal
	for rows.Next() {
		var (
			sig     models.Signal
			band    string
			sources uint32
			detail  string
		)
		if err := rows.Scan(&sig.ID, &sig.Timestamp, &sig.Symbol, &sig.DisplayName, &band, &sig.CombinedScore, &sig.Confidence,
			&sig.Sentiment.Value, &sources, &sig.Technical.Value, &sig.Price, &sig.WeekChangePct, &sig.RSI, &sig.VolumeRatio,
			&sig.Warnings, &detail); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		sig.Band = models.Band(band)
		sig.Sentiment.SourceCount = int(sources)
		var d signalDetail
		if detail != "" {
			if err := json.Unmarshal([]byte(detail), &d); err != nil {
				s.l.Warn("bad signal detail", applogger.String("id", sig.ID), applogger.Error(err))
			}
		}
		sig.Sentiment.PerProvider = d.PerProvider
		sig.Technical.Components = d.Components
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse signal history ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
