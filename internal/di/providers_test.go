package di

import (
	"testing"

	internalrepo "StockSignal/internal/repository"
	"StockSignal/pkg/config"
	applogger "StockSignal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualify(t *testing.T) {
	assert.Equal(t, "stocksignal.signals", qualify("stocksignal", "signals"))
	assert.Equal(t, "other.candles", qualify("stocksignal", "other.candles"))
	assert.Equal(t, "signals", qualify("", "signals"))
}

func TestDisabledInfrastructureIsNil(t *testing.T) {
	cfg := &config.Config{}

	ch, cleanup, err := ProvideClickHouseClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, ch)
	cleanup()

	p, cleanup, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	assert.Nil(t, p)
	cleanup()

	c, err := ProvideKafkaConsumer(cfg, applogger.Nop())
	require.NoError(t, err)
	assert.Nil(t, c)

	store, err := ProvideSignalStore(cfg, nil, applogger.Nop())
	require.NoError(t, err)
	assert.Nil(t, store)

	assert.Nil(t, ProvideHTTPServer(cfg, applogger.Nop(), nil, nil))
}

func TestProvidePriceCacheNone(t *testing.T) {
	cfg := &config.Config{}
	cfg.MarketData.Cache = "none"

	pc, cleanup, err := ProvidePriceCache(cfg)
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, internalrepo.NopPriceCache{}, pc)
}

func TestProvidePriceSourceClickHouseRequiresClient(t *testing.T) {
	cfg := &config.Config{}
	cfg.MarketData.Source = "clickhouse"

	_, err := ProvidePriceSource(cfg, nil, applogger.Nop())
	assert.Error(t, err)
}

func TestProvideSignalSinksWebsocketOnly(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Enabled = true
	hub := ProvideHub(applogger.Nop())

	sinks := ProvideSignalSinks(cfg, nil, nil, hub, nil)
	require.Len(t, sinks.All, 1)
	assert.Equal(t, "websocket", sinks.All[0].Name())
	assert.Empty(t, sinks.Buffered)
}
