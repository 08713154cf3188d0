package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/handler/ws"
	mid "StockSignal/internal/middleware"
	"StockSignal/internal/usecase"
	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
	pkgkafka "StockSignal/pkg/kafka"
	applogger "StockSignal/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	scheduler  *usecase.Scheduler
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	httpServer *xhttp.Server
	hub        *ws.Hub
	buffered   []*mid.BufferedSink
}

// New creates a new App instance with all dependencies. consumer, httpServer
// and hub may be nil when the matching feature is disabled.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	scheduler *usecase.Scheduler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	buffered []*mid.BufferedSink,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		l:          l,
		scheduler:  scheduler,
		consumer:   consumer,
		kh:         kh,
		httpServer: httpServer,
		hub:        hub,
		buffered:   buffered,
	}
}

// RunOnce analyses the watchlist a single time and returns the report.
func (a *App) RunOnce(ctx context.Context) *models.Report {
	a.startSinks(ctx)
	defer a.stopSinks()
	return a.scheduler.RunOnce(ctx)
}

// Run starts every inbound surface and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.startSinks(ctx)

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			a.l.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(ctx); err != nil {
			a.l.Error("kafka consumer error", applogger.Error(err))
			return err
		}
		a.l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.scheduler.Start(ctx, a.cfg.Analysis.RunOnStart); err != nil {
		return err
	}
	a.l.Info("stock signal started",
		applogger.Strings("watchlist", a.cfg.Watchlist),
		applogger.String("schedule", a.cfg.Analysis.Schedule),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) startSinks(ctx context.Context) {
	for _, b := range a.buffered {
		b.Start(ctx)
	}
}

func (a *App) stopSinks() {
	for _, b := range a.buffered {
		if n := b.Pending(); n > 0 {
			a.l.Warn("dropping undelivered signals", applogger.String("sink", b.Name()), applogger.Int("pending", n))
		}
		b.Stop()
	}
}

// shutdown stops inbound surfaces first, then the sinks they feed.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.scheduler.Stop(ctx); err != nil {
		a.l.Warn("scheduler stop error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}
	if a.hub != nil {
		a.hub.Close()
	}
	a.stopSinks()

	a.l.Info("shutdown complete")
	return nil
}
