package di

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"StockSignal/internal/domain/repository"
	domsvc "StockSignal/internal/domain/service"
	"StockSignal/internal/handler/api"
	"StockSignal/internal/handler/ws"
	mid "StockSignal/internal/middleware"
	internalrepo "StockSignal/internal/repository"
	"StockSignal/internal/service/providers"
	"StockSignal/internal/service/ratelimit"
	"StockSignal/internal/services/analytics"
	"StockSignal/internal/services/sentiment"
	"StockSignal/internal/services/signal"
	"StockSignal/internal/services/technical"
	"StockSignal/internal/usecase"
	"StockSignal/pkg/cache"
	pkgch "StockSignal/pkg/clickhouse"
	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
	pkgkafka "StockSignal/pkg/kafka"
	applogger "StockSignal/pkg/logger"
	"StockSignal/pkg/metrics"
	"StockSignal/pkg/server"
)

// SignalSinks are the per-signal outputs plus the buffered ones the app must start and stop.
type SignalSinks struct {
	All      []repository.SignalSink
	Buffered []*mid.BufferedSink
}

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

func qualify(db, table string) string {
	if strings.Contains(table, ".") || db == "" {
		return table
	}
	return db + "." + table
}

// ProvideClickHouseClient creates a ClickHouse client and its schema, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + db},
		internalrepo.Schema(qualify(db, "signals"), qualify(db, cfg.MarketData.CandlesTable))...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideKafkaConsumer creates the analysis-request consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRequestsHandler handles the analysis-request topic.
func ProvideRequestsHandler(cfg *config.Config, analyzer *usecase.Analyzer, m repository.Metrics) pkgkafka.MessageHandler {
	return usecase.NewKafkaRequestsHandler(cfg.Kafka.RequestsTopic, analyzer, m)
}

func ProvidePolarityScorer(cfg *config.Config) domsvc.PolarityScorer {
	return analytics.NewPolarityScorer(cfg.Scorer)
}

func ProvideSentimentProviders(cfg *config.Config, scorer domsvc.PolarityScorer, l *applogger.Logger) []repository.SentimentProvider {
	return providers.Build(cfg.Providers, scorer, l)
}

// ProvideAggregator pools provider sentiment with retries, logging and metrics.
func ProvideAggregator(cfg *config.Config, ps []repository.SentimentProvider, l *applogger.Logger, m repository.Metrics) *sentiment.Aggregator {
	return sentiment.NewAggregator(ps,
		sentiment.WithRetryPolicy(sentiment.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   cfg.Retry.BaseDelay,
			MaxDelay:    cfg.Retry.MaxDelay,
			Jitter:      cfg.Retry.Jitter,
		}),
		sentiment.WithAttemptTimeout(cfg.Retry.AttemptTimeout),
		sentiment.WithEventSink(sentiment.MultiSink{
			sentiment.NewLogSink(l.With(applogger.String("component", "sentiment"))),
			sentiment.NewMetricsSink(m),
		}),
	)
}

// ProvidePriceSource picks the daily bar upstream.
func ProvidePriceSource(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.PriceSource, error) {
	if cfg.MarketData.Source == "clickhouse" {
		if ch == nil {
			return nil, fmt.Errorf("market_data.source clickhouse requires clickhouse.enabled")
		}
		return internalrepo.NewCHCandleSource(ch, qualify(cfg.ClickHouse.Database, cfg.MarketData.CandlesTable), l)
	}
	return internalrepo.NewYahooSource(cfg.MarketData.YahooURL, cfg.MarketData.RequestTimeout), nil
}

// ProvidePriceCache picks the price cache backend.
func ProvidePriceCache(cfg *config.Config) (repository.PriceCache, func(), error) {
	switch cfg.MarketData.Cache {
	case "redis":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		return internalrepo.NewCachePriceCache(rc, cfg.MarketData.MaxAge), func() { _ = rc.Close() }, nil
	case "none":
		return internalrepo.NopPriceCache{}, func() {}, nil
	default:
		fc, err := internalrepo.NewFilePriceCache(cfg.MarketData.CacheDir)
		if err != nil {
			return nil, nil, err
		}
		return fc, func() {}, nil
	}
}

func ProvideMarketData(cfg *config.Config, src repository.PriceSource, pc repository.PriceCache, l *applogger.Logger) repository.MarketData {
	return internalrepo.NewMarketDataRepo(src, pc, repository.Lookback(cfg.Analysis.LookbackMonths), cfg.MarketData.MaxAge, l)
}

// ProvideSignalStore returns the ClickHouse history store, or nil when disabled.
func ProvideSignalStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.SignalStore, error) {
	if ch == nil {
		return nil, nil
	}
	return internalrepo.NewClickHouseSignalStore(ch.DB(), qualify(cfg.ClickHouse.Database, "signals"), l)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideSignalSinks assembles every per-signal output that is enabled.
func ProvideSignalSinks(cfg *config.Config, store repository.SignalStore, producer *pkgkafka.Producer, hub *ws.Hub, m repository.Metrics) SignalSinks {
	var out SignalSinks
	if store != nil {
		b := mid.NewBufferedSink(usecase.NewStoreSink(store), m, mid.WithBufferSize(512))
		out.All = append(out.All, b)
		out.Buffered = append(out.Buffered, b)
	}
	if producer != nil {
		pub := internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalsTopic)
		b := mid.NewBufferedSink(usecase.NewPublisherSink(pub), m, mid.WithBufferSize(512))
		out.All = append(out.All, b)
		out.Buffered = append(out.Buffered, b)
	}
	if cfg.Server.Enabled && hub != nil {
		out.All = append(out.All, hub)
	}
	return out
}

func ProvideClassifier(cfg *config.Config) (*signal.Classifier, error) {
	t := cfg.Thresholds
	w := cfg.Weights
	r := cfg.Warnings
	return signal.NewClassifier(
		signal.Thresholds{StrongBuy: t.StrongBuy, Buy: t.Buy, Hold: t.Hold, Sell: t.Sell, StrongSell: t.StrongSell},
		signal.Weights{Sentiment: w.Sentiment, Technical: w.Technical},
		signal.WithWarningRules(signal.WarningRules{
			OverboughtRSI:       r.OverboughtRSI,
			OversoldRSI:         r.OversoldRSI,
			MinSentimentSources: r.MinSentimentSources,
			LowVolumeRatio:      r.LowVolumeRatio,
		}),
	)
}

// ProvideAnalyzer creates the analysis use case.
func ProvideAnalyzer(
	cfg *config.Config,
	agg *sentiment.Aggregator,
	md repository.MarketData,
	classifier *signal.Classifier,
	sinks SignalSinks,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Analyzer {
	tw := cfg.TechnicalWeights
	return usecase.NewAnalyzer(
		agg,
		md,
		technical.NewEngine(technical.DefaultPeriods()),
		technical.NewScorer(technical.Weights{MovingAverages: tw.MovingAverages, RSI: tw.RSI, Momentum: tw.Momentum, Volume: tw.Volume}),
		classifier,
		cfg.Watchlist,
		usecase.WithWorkers(cfg.Analysis.Workers),
		usecase.WithSymbolTimeout(cfg.Analysis.SymbolTimeout),
		usecase.WithDisplayNames(cfg.DisplayName),
		usecase.WithSinks(sinks.All...),
		usecase.WithAnalyzerMetrics(m),
		usecase.WithAnalyzerLogger(l.With(applogger.String("component", "analyzer"))),
	)
}

func ProvideLatestReport() *usecase.LatestReport {
	return usecase.NewLatestReport()
}

// ProvideScheduler wires the report sinks enabled in output config.
func ProvideScheduler(cfg *config.Config, analyzer *usecase.Analyzer, latest *usecase.LatestReport, agg *sentiment.Aggregator, l *applogger.Logger) *usecase.Scheduler {
	sinks := []usecase.ReportSink{latest}
	if cfg.Output.Console {
		sinks = append(sinks, usecase.NewConsoleReporter(os.Stdout, agg.Providers()))
	}
	if cfg.Output.ExportCSV {
		sinks = append(sinks, usecase.NewCSVExporter(cfg.Output.SavePath))
	}
	return usecase.NewScheduler(analyzer, cfg.Analysis.Schedule, l, sinks...)
}

// ProvideResponseCache is the in-process cache for on-demand API analyses.
func ProvideResponseCache() (*cache.MemoryCache, func()) {
	c := cache.NewMemoryCache(cache.WithMemoryMaxSize(1000), cache.WithMemoryCleanup(time.Minute))
	return c, func() { _ = c.Close() }
}

func ProvideSignalsHandler(
	cfg *config.Config,
	l *applogger.Logger,
	analyzer *usecase.Analyzer,
	latest *usecase.LatestReport,
	store repository.SignalStore,
	rc *cache.MemoryCache,
) *api.SignalsEchoHandler {
	return api.NewSignalsEchoHandler(l, analyzer, latest,
		api.WithHistoryStore(store),
		api.WithResponseCache(rc, cfg.Server.ResponseCacheTTL),
		api.WithRateLimit(ratelimit.New(), cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec),
	)
}

// ProvideHTTPServer creates the Echo server, or nil when disabled.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.SignalsEchoHandler, hub *ws.Hub) *xhttp.Server {
	if !cfg.Server.Enabled {
		return nil
	}
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, []xhttp.Handler{h, hub},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	scheduler *usecase.Scheduler,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	httpServer *xhttp.Server,
	hub *ws.Hub,
	sinks SignalSinks,
) *server.App {
	return server.New(cfg, l, scheduler, consumer, kh, httpServer, hub, sinks.Buffered)
}
