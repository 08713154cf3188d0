package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"TSLA", "AAPL", "NVDA", "MSFT"}, c.Watchlist)
	assert.Equal(t, 0.7, c.Thresholds.StrongBuy)
	assert.Equal(t, -0.4, c.Thresholds.Hold)
	assert.Equal(t, -1.0, c.Thresholds.StrongSell)
	assert.Equal(t, 0.3, c.Weights.Sentiment)
	assert.Equal(t, 0.7, c.Weights.Technical)
	assert.Equal(t, 3, c.Retry.MaxAttempts)
	assert.Equal(t, 2*time.Second, c.Retry.BaseDelay)
	assert.Equal(t, 10*time.Second, c.Retry.MaxDelay)
	assert.Equal(t, time.Hour, c.MarketData.MaxAge)
	assert.Equal(t, 10, c.Warnings.MinSentimentSources)
	assert.Equal(t, []string{"wallstreetbets", "stocks", "investing"}, c.Providers.Reddit.Subreddits)
	assert.Equal(t, "info", c.Log.Level)
}

func TestLoadOverridesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, `
environment: test
watchlist: [aapl, " msft ", AAPL]
company_names:
  aapl: Apple
thresholds:
  strong_buy: 0.8
  buy: 0.3
  hold: 0.0
  sell: -0.3
  strong_sell: -0.8
retry:
  max_attempts: 5
  base_delay: 100ms
  max_delay: 1s
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"AAPL", "MSFT"}, c.Watchlist)
	assert.Equal(t, 0.0, c.Thresholds.Hold)
	assert.Equal(t, 5, c.Retry.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, c.Retry.BaseDelay)
	assert.Equal(t, "Apple", c.DisplayName("AAPL"))
	assert.Equal(t, "MSFT", c.DisplayName("MSFT"))
}

func TestValidateRejectsNonMonotonicThresholds(t *testing.T) {
	_, err := Load(writeConfig(t, `
environment: test
thresholds:
  strong_buy: 0.3
  buy: 0.4
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thresholds.buy")
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"negative weight": "weights:\n  sentiment: -0.1\n",
		"zero workers":    "analysis:\n  workers: 0\n",
		"bad source":      "market_data:\n  source: bloomberg\n",
		"max<base delay":  "retry:\n  base_delay: 5s\n  max_delay: 1s\n",
		"kafka no broker": "kafka:\n  enabled: true\n",
		"ch source off":   "market_data:\n  source: clickhouse\n",
		"empty watchlist": "watchlist: []\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "environment: test\n"+body))
			assert.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c := Default()
	env := map[string]string{
		"FINNHUB_KEY":      "fh",
		"NEWS_API_KEY":     "na",
		"REDDIT_CLIENT_ID": "rid",
		"REDDIT_SECRET":    "rs",
		"WATCHLIST":        "amd, googl",
		"KAFKA_BROKERS":    "k1:9092,k2:9092",
		"REDIS_PORT":       "6380",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "fh", c.Providers.Finnhub.APIKey)
	assert.Equal(t, "na", c.Providers.NewsAPI.APIKey)
	assert.Equal(t, "rid", c.Providers.Reddit.ClientID)
	assert.Equal(t, "rs", c.Providers.Reddit.ClientSecret)
	assert.Equal(t, []string{"AMD", "GOOGL"}, c.Watchlist)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, 6380, c.Redis.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
