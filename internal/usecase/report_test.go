package usecase

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"StockSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *models.Report {
	return &models.Report{
		RunID:     "run-1",
		StartedAt: fixedNow,
		Signals: []models.Signal{
			{
				Symbol: "AAPL", Band: models.BandStrongBuy, CombinedScore: 0.87, Confidence: 87,
				Price: 190.5, WeekChangePct: 2.346, RSI: 55.56,
				Sentiment: models.SentimentMeasurement{Value: 0.8, SourceCount: 50, PerProvider: map[string]float64{"finnhub": 0.7, "reddit": 0.9}},
				Technical: models.TechnicalMeasurement{Value: 0.9},
				Warnings:  []string{"Low volume"},
				Timestamp: fixedNow,
			},
			{Symbol: "MSFT", Band: models.BandHold, CombinedScore: -0.04, Confidence: 4, Timestamp: fixedNow},
		},
		Failures: []models.Failure{{Symbol: "ZZZZ", Reason: "no market data"}},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleReport().Signals))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Symbol,Signal,Confidence,Price,Week_Change,RSI,Sentiment,Technical,Combined,Timestamp", lines[0])
	assert.Equal(t, "AAPL,STRONG BUY,87.0%,$190.50,+2.35%,55.6,+0.800,+0.900,+0.870,2025-06-02T14:30:00Z", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "MSFT,HOLD,4.0%"))
}

func TestCSVExporterWritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	e := NewCSVExporter(filepath.Join(dir, "out"))
	e.now = func() time.Time { return time.Date(2025, 5, 10, 15, 30, 0, 0, time.UTC) }

	require.NoError(t, e.Report(context.Background(), sampleReport()))
	b, err := os.ReadFile(filepath.Join(dir, "out", "signals_20250510_153000.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "AAPL,STRONG BUY")
}

func TestCSVExporterSkipsEmptyReport(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, NewCSVExporter(dir).Report(context.Background(), &models.Report{}))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConsoleReporter(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsoleReporter(&buf, []string{"finnhub", "reddit"})
	require.NoError(t, c.Report(context.Background(), sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "STRONG BUY - AAPL")
	assert.Contains(t, out, "Providers: finnhub, reddit")
	assert.Contains(t, out, "+0.800 (50 sources)")
	assert.Contains(t, out, "- finnhub")
	assert.Contains(t, out, "Low volume")
	assert.Contains(t, out, "SKIPPED ZZZZ: no market data")
	assert.Contains(t, out, "Buy Signals: 1")
	assert.Contains(t, out, "Average Confidence: 45.5%")
	assert.Contains(t, out, "TOP PICK: AAPL - STRONG BUY (87% confidence)")
}

func TestConsoleReporterNoSignals(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf, nil).Report(context.Background(), &models.Report{RunID: "r"}))
	assert.Contains(t, buf.String(), "No signals generated")
}

func TestLatestReport(t *testing.T) {
	h := NewLatestReport()
	assert.Nil(t, h.Get())
	r := sampleReport()
	require.NoError(t, h.Report(context.Background(), r))
	assert.Same(t, r, h.Get())
}

type countingAnalyzer struct {
	runs    atomic.Int32
	entered chan struct{}
	block   chan struct{}
}

func (c *countingAnalyzer) AnalyzeWatchlist(ctx context.Context) *models.Report {
	c.runs.Add(1)
	if c.entered != nil {
		close(c.entered)
	}
	if c.block != nil {
		<-c.block
	}
	return &models.Report{RunID: "r", StartedAt: fixedNow, FinishedAt: fixedNow}
}

func TestSchedulerRunOnceDeliversToSinks(t *testing.T) {
	latest := NewLatestReport()
	s := NewScheduler(&countingAnalyzer{}, "@every 1h", nil, latest)

	r := s.RunOnce(context.Background())
	assert.Same(t, r, latest.Get())
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := NewScheduler(&countingAnalyzer{}, "not a schedule", nil)
	assert.Error(t, s.Start(context.Background(), false))
}

func TestSchedulerSkipsOverlappingTick(t *testing.T) {
	ca := &countingAnalyzer{entered: make(chan struct{}), block: make(chan struct{})}
	s := NewScheduler(ca, "@every 1h", nil)
	require.NoError(t, s.Start(context.Background(), true))

	select {
	case <-ca.entered:
	case <-time.After(time.Second):
		t.Fatal("initial run did not start")
	}
	s.tick()
	close(ca.block)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	assert.Equal(t, int32(1), ca.runs.Load())
}
