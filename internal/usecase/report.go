package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"StockSignal/internal/domain/models"
	"StockSignal/pkg/util"
)

// ReportSink receives every finished watchlist report.
type ReportSink interface {
	Name() string
	Report(ctx context.Context, r *models.Report) error
}

// LatestReport keeps the most recent report for the HTTP API.
type LatestReport struct {
	mu sync.RWMutex
	r  *models.Report
}

func NewLatestReport() *LatestReport { return &LatestReport{} }

func (h *LatestReport) Name() string { return "latest" }

func (h *LatestReport) Report(_ context.Context, r *models.Report) error {
	h.mu.Lock()
	h.r = r
	h.mu.Unlock()
	return nil
}

// Get returns the latest report, or nil before the first run.
func (h *LatestReport) Get() *models.Report {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.r
}

// ConsoleReporter prints a per-signal table and a run summary.
type ConsoleReporter struct {
	w         io.Writer
	providers []string
}

func NewConsoleReporter(w io.Writer, providers []string) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{w: w, providers: providers}
}

func (c *ConsoleReporter) Name() string { return "console" }

func (c *ConsoleReporter) Report(_ context.Context, r *models.Report) error {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(c.w, "\n%s\nSTOCK SIGNAL ANALYSIS  run %s\n%s\n", rule, r.RunID, rule)
	if len(c.providers) > 0 {
		fmt.Fprintf(c.w, "Providers: %s\n", strings.Join(c.providers, ", "))
	}
	fmt.Fprintf(c.w, "Time: %s\n", r.StartedAt.Local().Format(time.DateTime))

	for i := range r.Signals {
		if err := c.writeSignal(&r.Signals[i], rule); err != nil {
			return err
		}
	}
	for _, f := range r.Failures {
		fmt.Fprintf(c.w, "\nSKIPPED %s: %s\n", f.Symbol, f.Reason)
	}
	if len(r.Signals) == 0 {
		_, err := fmt.Fprintln(c.w, "\nNo signals generated")
		return err
	}

	s := r.Summarize()
	fmt.Fprintf(c.w, "\n%s\nSUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(c.w, "Buy Signals: %d\nSell Signals: %d\nHold Signals: %d\n", s.Buy, s.Sell, s.Hold)
	fmt.Fprintf(c.w, "Average Confidence: %.1f%%\n", s.AvgConfidence)
	_, err := fmt.Fprintf(c.w, "\nTOP PICK: %s - %s (%.0f%% confidence)\n", s.TopPick.Symbol, s.TopPick.Band.Label(), s.TopPick.Confidence)
	return err
}

func (c *ConsoleReporter) writeSignal(sig *models.Signal, rule string) error {
	fmt.Fprintf(c.w, "\n%s\n%s - %s\n%s\n", rule, sig.Band.Label(), sig.Symbol, rule)

	tw := tabwriter.NewWriter(c.w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Signal\t%s\n", sig.Band.Label())
	fmt.Fprintf(tw, "Confidence\t%.1f%%\n", sig.Confidence)
	fmt.Fprintf(tw, "Current Price\t$%.2f\n", sig.Price)
	fmt.Fprintf(tw, "Week Change\t%+.2f%%\n", sig.WeekChangePct)
	fmt.Fprintf(tw, "RSI\t%.1f\n", sig.RSI)
	fmt.Fprintf(tw, "\t\n")
	fmt.Fprintf(tw, "Combined Score\t%+.3f\n", sig.CombinedScore)
	fmt.Fprintf(tw, "  Sentiment\t%+.3f (%d sources)\n", sig.Sentiment.Value, sig.Sentiment.SourceCount)
	fmt.Fprintf(tw, "  Technical\t%+.3f\n", sig.Technical.Value)

	if len(sig.Sentiment.PerProvider) > 0 {
		fmt.Fprintf(tw, "\t\nSentiment Sources:\t\n")
		names := make([]string, 0, len(sig.Sentiment.PerProvider))
		for n := range sig.Sentiment.PerProvider {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Fprintf(tw, "  - %s\t%+.3f\n", n, sig.Sentiment.PerProvider[n])
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(sig.Warnings) > 0 {
		fmt.Fprintln(c.w, "\nWARNINGS:")
		for _, w := range sig.Warnings {
			fmt.Fprintf(c.w, "   %s\n", w)
		}
	}
	_, err := fmt.Fprintf(c.w, "\nGenerated: %s\n", sig.Timestamp.Local().Format(time.DateTime))
	return err
}

var csvHeader = []string{"Symbol", "Signal", "Confidence", "Price", "Week_Change", "RSI", "Sentiment", "Technical", "Combined", "Timestamp"}

// CSVExporter writes signals_YYYYMMDD_HHMMSS.csv under dir.
type CSVExporter struct {
	dir string
	now func() time.Time
}

func NewCSVExporter(dir string) *CSVExporter {
	return &CSVExporter{dir: dir, now: time.Now}
}

func (e *CSVExporter) Name() string { return "csv" }

func (e *CSVExporter) Report(_ context.Context, r *models.Report) error {
	if len(r.Signals) == 0 {
		return nil
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(e.dir, "signals_"+util.FileStamp(e.now())+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, r.Signals); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV renders signals in the export column layout.
func WriteCSV(w io.Writer, signals []models.Signal) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, s := range signals {
		rec := []string{
			s.Symbol,
			s.Band.Label(),
			fmt.Sprintf("%.1f%%", s.Confidence),
			fmt.Sprintf("$%.2f", s.Price),
			fmt.Sprintf("%+.2f%%", s.WeekChangePct),
			fmt.Sprintf("%.1f", s.RSI),
			fmt.Sprintf("%+.3f", s.Sentiment.Value),
			fmt.Sprintf("%+.3f", s.Technical.Value),
			fmt.Sprintf("%+.3f", s.CombinedScore),
			s.Timestamp.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
