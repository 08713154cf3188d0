package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"StockSignal/pkg/logger"
	"StockSignal/pkg/util"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment      string                 `yaml:"environment" default:"development" validate:"required"`
	Log              logger.Config          `yaml:"log"`
	Server           ServerConfig           `yaml:"server"`
	Watchlist        []string               `yaml:"watchlist" default:"[\"TSLA\",\"AAPL\",\"NVDA\",\"MSFT\"]" validate:"required,min=1,dive,required"`
	CompanyNames     map[string]string      `yaml:"company_names"`
	Analysis         AnalysisConfig         `yaml:"analysis"`
	Retry            RetryConfig            `yaml:"retry"`
	Thresholds       ThresholdsConfig       `yaml:"thresholds"`
	Weights          WeightsConfig          `yaml:"weights"`
	TechnicalWeights TechnicalWeightsConfig `yaml:"technical_weights"`
	Warnings         WarningsConfig         `yaml:"warnings"`
	MarketData       MarketDataConfig       `yaml:"market_data"`
	Providers        ProvidersConfig        `yaml:"providers"`
	Scorer           ScorerConfig           `yaml:"scorer"`
	Output           OutputConfig           `yaml:"output"`
	Kafka            KafkaConfig            `yaml:"kafka"`
	ClickHouse       ClickHouseConfig       `yaml:"clickhouse"`
	Redis            RedisConfig            `yaml:"redis"`
	Metrics          MetricsConfig          `yaml:"metrics"`
}

type ServerConfig struct {
	Enabled         bool          `yaml:"enabled" default:"true"`
	Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	RateLimit       struct {
		Capacity     float64 `yaml:"capacity" default:"10" validate:"gte=1"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"2" validate:"gt=0"`
	} `yaml:"rate_limit"`
	ResponseCacheTTL time.Duration `yaml:"response_cache_ttl" default:"30s"`
}

type AnalysisConfig struct {
	Workers        int           `yaml:"workers" default:"2" validate:"gte=1,lte=32"`
	SymbolTimeout  time.Duration `yaml:"symbol_timeout" default:"2m" validate:"gt=0"`
	Schedule       string        `yaml:"schedule" default:"@every 1h"`
	RunOnStart     bool          `yaml:"run_on_start" default:"true"`
	LookbackMonths int           `yaml:"price_history_months" default:"6" validate:"gte=1,lte=24"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" default:"3" validate:"gte=1,lte=10"`
	BaseDelay      time.Duration `yaml:"base_delay" default:"2s" validate:"gte=0"`
	MaxDelay       time.Duration `yaml:"max_delay" default:"10s" validate:"gte=0"`
	Jitter         float64       `yaml:"jitter" default:"0.5" validate:"gte=0,lte=1"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" default:"30s" validate:"gt=0"`
}

type ThresholdsConfig struct {
	StrongBuy  float64 `yaml:"strong_buy" default:"0.7"`
	Buy        float64 `yaml:"buy" default:"0.4"`
	Hold       float64 `yaml:"hold" default:"-0.4"`
	Sell       float64 `yaml:"sell" default:"-0.7"`
	StrongSell float64 `yaml:"strong_sell" default:"-1.0"`
}

type WeightsConfig struct {
	Sentiment float64 `yaml:"sentiment" default:"0.3" validate:"gte=0"`
	Technical float64 `yaml:"technical" default:"0.7" validate:"gte=0"`
}

type TechnicalWeightsConfig struct {
	MovingAverages float64 `yaml:"moving_averages" default:"0.4" validate:"gte=0"`
	RSI            float64 `yaml:"rsi" default:"0.3" validate:"gte=0"`
	Momentum       float64 `yaml:"momentum" default:"0.2" validate:"gte=0"`
	Volume         float64 `yaml:"volume" default:"0.1" validate:"gte=0"`
}

type WarningsConfig struct {
	OverboughtRSI       float64 `yaml:"overbought_rsi" default:"70"`
	OversoldRSI         float64 `yaml:"oversold_rsi" default:"30"`
	MinSentimentSources int     `yaml:"min_sentiment_sources" default:"10" validate:"gte=0"`
	LowVolumeRatio      float64 `yaml:"low_volume_ratio" default:"0.5" validate:"gte=0"`
}

type MarketDataConfig struct {
	Source         string        `yaml:"source" default:"yahoo" validate:"oneof=yahoo clickhouse"`
	YahooURL       string        `yaml:"yahoo_url" default:"https://query1.finance.yahoo.com" validate:"url"`
	CandlesTable   string        `yaml:"candles_table" default:"daily_candles"`
	Cache          string        `yaml:"cache" default:"file" validate:"oneof=file redis none"`
	CacheDir       string        `yaml:"cache_dir" default:"data/cache"`
	MaxAge         time.Duration `yaml:"max_age" default:"1h" validate:"gt=0"`
	RequestTimeout time.Duration `yaml:"request_timeout" default:"15s" validate:"gt=0"`
}

type FinnhubConfig struct {
	Enabled      bool    `yaml:"enabled" default:"true"`
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url" default:"https://finnhub.io/api/v1" validate:"url"`
	MaxArticles  int     `yaml:"max_articles" default:"20" validate:"gte=1"`
	LookbackDays int     `yaml:"lookback_days" default:"3" validate:"gte=1"`
	RateLimit    float64 `yaml:"rate_limit" default:"1" validate:"gt=0"`
}

type NewsAPIConfig struct {
	Enabled      bool    `yaml:"enabled" default:"true"`
	APIKey       string  `yaml:"api_key"`
	BaseURL      string  `yaml:"base_url" default:"https://newsapi.org/v2" validate:"url"`
	MaxArticles  int     `yaml:"max_articles" default:"30" validate:"gte=1,lte=100"`
	LookbackDays int     `yaml:"lookback_days" default:"3" validate:"gte=1"`
	RateLimit    float64 `yaml:"rate_limit" default:"1" validate:"gt=0"`
}

type RedditConfig struct {
	Enabled      bool     `yaml:"enabled" default:"true"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	UserAgent    string   `yaml:"user_agent" default:"StockSignal/1.0"`
	AuthURL      string   `yaml:"auth_url" default:"https://www.reddit.com" validate:"url"`
	BaseURL      string   `yaml:"base_url" default:"https://oauth.reddit.com" validate:"url"`
	Subreddits   []string `yaml:"subreddits" default:"[\"wallstreetbets\",\"stocks\",\"investing\"]" validate:"min=1"`
	PostLimit    int      `yaml:"post_limit" default:"25" validate:"gte=1,lte=100"`
	CommentLimit int      `yaml:"comment_limit" default:"5" validate:"gte=0"`
	RateLimit    float64  `yaml:"rate_limit" default:"1" validate:"gt=0"`
}

type FinvizConfig struct {
	Enabled     bool    `yaml:"enabled" default:"false"`
	BaseURL     string  `yaml:"base_url" default:"https://finviz.com" validate:"url"`
	MaxArticles int     `yaml:"max_articles" default:"20" validate:"gte=1"`
	RateLimit   float64 `yaml:"rate_limit" default:"0.5" validate:"gt=0"`
}

type ProvidersConfig struct {
	Timeout time.Duration `yaml:"timeout" default:"20s" validate:"gt=0"`
	Finnhub FinnhubConfig `yaml:"finnhub"`
	NewsAPI NewsAPIConfig `yaml:"newsapi"`
	Reddit  RedditConfig  `yaml:"reddit"`
	Finviz  FinvizConfig  `yaml:"finviz"`
}

type ScorerConfig struct {
	URL       string        `yaml:"url" default:"http://localhost:8000" validate:"url"`
	Path      string        `yaml:"path" default:"/sentiment/polarity"`
	Timeout   time.Duration `yaml:"timeout" default:"10s" validate:"gt=0"`
	BatchSize int           `yaml:"batch_size" default:"64" validate:"gte=1"`
}

type OutputConfig struct {
	Console   bool   `yaml:"console" default:"true"`
	ExportCSV bool   `yaml:"export_csv" default:"true"`
	SavePath  string `yaml:"save_path" default:"output"`
}

type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled" default:"false"`
	Brokers       []string `yaml:"brokers"`
	SignalsTopic  string   `yaml:"signals_topic" default:"stocksignal.signals"`
	RequestsTopic string   `yaml:"requests_topic" default:"stocksignal.requests"`
	RequiredAcks  int      `yaml:"required_acks" default:"-1"`
	Compression   string   `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
	Producer      struct {
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		Linger       time.Duration `yaml:"linger" default:"100ms"`
		BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		Async        bool          `yaml:"async" default:"false"`
	} `yaml:"producer"`
	Consumer struct {
		Enabled    bool          `yaml:"enabled" default:"false"`
		GroupID    string        `yaml:"group_id" default:"stocksignal"`
		Workers    int           `yaml:"workers" default:"2" validate:"gte=1"`
		BufferSize int           `yaml:"buffer_size" default:"64" validate:"gte=1"`
		RetryMax   int           `yaml:"retry_max" default:"2"`
		BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
		BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
		DLQTopic   string        `yaml:"dlq_topic"`
		MinBytes   int           `yaml:"min_bytes" default:"1"`
		MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
	} `yaml:"consumer"`
}

type ClickHouseConfig struct {
	Enabled          bool          `yaml:"enabled" default:"false"`
	Host             string        `yaml:"host" default:"localhost"`
	Port             int           `yaml:"port" default:"9000"`
	Database         string        `yaml:"database" default:"stocksignal"`
	User             string        `yaml:"user" default:"default"`
	Password         string        `yaml:"password"`
	UseHTTP          bool          `yaml:"use_http"`
	AsyncInsert      bool          `yaml:"async_insert"`
	WaitForAsync     bool          `yaml:"wait_for_async_insert"`
	DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
	ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
	MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
}

type RedisConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix" default:"stocksignal"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" default:"true"`
	Path    string `yaml:"path" default:"/metrics"`
}

var validate = validator.New()

// Default returns a config populated only from default tags.
func Default() *Config {
	var c Config
	_ = defaults.Set(&c)
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present) and the YAML file, then overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := read(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv(os.Getenv)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.normalize()
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("FINNHUB_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := getenv("NEWS_API_KEY"); v != "" {
		c.Providers.NewsAPI.APIKey = v
	}
	if v := getenv("REDDIT_CLIENT_ID"); v != "" {
		c.Providers.Reddit.ClientID = v
	}
	if v := getenv("REDDIT_SECRET"); v != "" {
		c.Providers.Reddit.ClientSecret = v
	}
	if v := getenv("WATCHLIST"); v != "" {
		c.Watchlist = util.SplitList(v)
	}
	if v := getenv("SCORER_URL"); v != "" {
		c.Scorer.URL = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = util.SplitList(v)
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
	}
	if v := getenv("REDIS_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Redis.Port = p
		}
	}
	c.normalize()
}

// normalize upper-cases symbols and drops duplicates, keeping first occurrence.
func (c *Config) normalize() {
	c.Watchlist = util.UniqueSymbols(c.Watchlist)
	if len(c.CompanyNames) > 0 {
		names := make(map[string]string, len(c.CompanyNames))
		for k, v := range c.CompanyNames {
			names[util.NormalizeSymbol(k)] = v
		}
		c.CompanyNames = names
	}
}

// DisplayName returns the configured company name, or the symbol itself.
func (c *Config) DisplayName(symbol string) string {
	if n, ok := c.CompanyNames[util.NormalizeSymbol(symbol)]; ok && n != "" {
		return n
	}
	return symbol
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	t := c.Thresholds
	cuts := []struct {
		name string
		v    float64
	}{
		{"strong_buy", t.StrongBuy}, {"buy", t.Buy}, {"hold", t.Hold}, {"sell", t.Sell}, {"strong_sell", t.StrongSell},
	}
	for i, cut := range cuts {
		if math.IsNaN(cut.v) || math.IsInf(cut.v, 0) {
			return fmt.Errorf("thresholds.%s must be finite", cut.name)
		}
		if i > 0 && cut.v > cuts[i-1].v {
			return fmt.Errorf("thresholds.%s (%g) must not exceed thresholds.%s (%g)", cut.name, cut.v, cuts[i-1].name, cuts[i-1].v)
		}
	}

	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay must be >= retry.base_delay")
	}
	if c.Warnings.OversoldRSI > c.Warnings.OverboughtRSI {
		return fmt.Errorf("warnings.oversold_rsi must not exceed warnings.overbought_rsi")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.MarketData.Source == "clickhouse" && !c.ClickHouse.Enabled {
		return fmt.Errorf("market_data.source clickhouse requires clickhouse.enabled")
	}
	return nil
}
