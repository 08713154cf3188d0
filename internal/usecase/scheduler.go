package usecase

import (
	"context"
	"fmt"
	"sync"

	"StockSignal/internal/domain/models"
	applogger "StockSignal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// WatchlistAnalyzer runs one pass over the watchlist.
type WatchlistAnalyzer interface {
	AnalyzeWatchlist(ctx context.Context) *models.Report
}

// Scheduler runs the watchlist on a cron schedule and hands each report to its sinks.
// Runs never overlap; a tick that fires during a run is skipped.
type Scheduler struct {
	analyzer WatchlistAnalyzer
	sinks    []ReportSink
	l        *applogger.Logger
	schedule string

	cron   *cron.Cron
	runMu  sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(analyzer WatchlistAnalyzer, schedule string, l *applogger.Logger, sinks ...ReportSink) *Scheduler {
	if l == nil {
		l = applogger.Nop()
	}
	return &Scheduler{
		analyzer: analyzer,
		sinks:    sinks,
		l:        l.With(applogger.String("component", "scheduler")),
		schedule: schedule,
	}
}

// RunOnce analyses the watchlist and delivers the report. Sink errors are logged.
func (s *Scheduler) RunOnce(ctx context.Context) *models.Report {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) *models.Report {
	r := s.analyzer.AnalyzeWatchlist(ctx)
	for _, sink := range s.sinks {
		if err := sink.Report(ctx, r); err != nil {
			s.l.Error("report sink failed", applogger.String("sink", sink.Name()), applogger.Error(err))
		}
	}
	s.l.Info("watchlist analysed",
		applogger.String("run_id", r.RunID),
		applogger.Int("signals", len(r.Signals)),
		applogger.Int("failures", len(r.Failures)),
		applogger.Duration("duration_ms", r.FinishedAt.Sub(r.StartedAt)),
	)
	return r
}

func (s *Scheduler) tick() {
	if !s.runMu.TryLock() {
		s.l.Warn("previous run still in progress, skipping tick")
		return
	}
	defer s.runMu.Unlock()
	s.run(s.ctx)
}

// Start registers the schedule and starts the cron runner.
func (s *Scheduler) Start(ctx context.Context, runNow bool) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, s.tick); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.schedule, err)
	}
	s.cron.Start()
	if runNow {
		go s.tick()
	}
	s.l.Info("scheduler started", applogger.String("schedule", s.schedule))
	return nil
}

// Stop cancels the running pass and waits for it, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cron == nil {
		return nil
	}
	s.cancel()
	done := s.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	// a run started with runNow is not tracked by cron
	s.runMu.Lock()
	s.runMu.Unlock()
	return nil
}
