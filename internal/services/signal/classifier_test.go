package signal

import (
	"testing"
	"time"

	"StockSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2025, 6, 2, 14, 30, 0, 0, time.UTC)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultThresholds(), DefaultWeights(), WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	return c
}

func calm() models.Indicators {
	return models.Indicators{Price: 100, RSI: 50, VolumeRatio: 1}
}

func TestClassifyStrongBuy(t *testing.T) {
	c := newClassifier(t)
	sig := c.Classify("AAPL", "Apple",
		models.SentimentMeasurement{Value: 0.8, SourceCount: 50},
		models.TechnicalMeasurement{Value: 0.9},
		calm())

	assert.InDelta(t, 0.87, sig.CombinedScore, 1e-9)
	assert.Equal(t, models.BandStrongBuy, sig.Band)
	assert.InDelta(t, 87, sig.Confidence, 1e-9)
	assert.Empty(t, sig.Warnings)
	assert.Equal(t, fixed, sig.Timestamp)
	assert.Equal(t, "Apple", sig.DisplayName)
}

func TestClassifyHold(t *testing.T) {
	c := newClassifier(t)
	sig := c.Classify("MSFT", "Microsoft",
		models.SentimentMeasurement{Value: 0.1, SourceCount: 20},
		models.TechnicalMeasurement{Value: -0.1},
		calm())

	assert.InDelta(t, -0.04, sig.CombinedScore, 1e-9)
	assert.Equal(t, models.BandHold, sig.Band)
	assert.InDelta(t, 4, sig.Confidence, 1e-9)
}

func TestClassifyTotalSentimentOutage(t *testing.T) {
	c := newClassifier(t)
	sig := c.Classify("TSLA", "Tesla",
		models.SentimentMeasurement{},
		models.TechnicalMeasurement{Value: 0.6},
		calm())

	assert.InDelta(t, 0.42, sig.CombinedScore, 1e-9)
	assert.Equal(t, models.BandBuy, sig.Band)
	assert.Equal(t, []string{"Low sentiment data (0 sources)"}, sig.Warnings)
}

func TestClassifyClipsCombined(t *testing.T) {
	c, err := NewClassifier(DefaultThresholds(), Weights{Sentiment: 1, Technical: 1})
	require.NoError(t, err)

	sig := c.Classify("X", "X", models.SentimentMeasurement{Value: 1, SourceCount: 99}, models.TechnicalMeasurement{Value: 1}, calm())
	assert.Equal(t, 1.0, sig.CombinedScore)
	assert.Equal(t, 100.0, sig.Confidence)

	sig = c.Classify("X", "X", models.SentimentMeasurement{Value: -1, SourceCount: 99}, models.TechnicalMeasurement{Value: -1}, calm())
	assert.Equal(t, -1.0, sig.CombinedScore)
	assert.Equal(t, models.BandStrongSell, sig.Band)
}

func TestBandCascade(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		score float64
		want  models.Band
	}{
		{1, models.BandStrongBuy},
		{0.7, models.BandStrongBuy},
		{0.6999, models.BandBuy},
		{0.4, models.BandBuy},
		{0.3999, models.BandHold},
		{0, models.BandHold},
		{-0.4, models.BandHold},
		{-0.4001, models.BandSell},
		{-0.7, models.BandSell},
		{-0.7001, models.BandStrongSell},
		{-1, models.BandStrongSell},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, th.Band(tc.score), "score=%v", tc.score)
	}
}

func TestBandMonotonic(t *testing.T) {
	rank := map[models.Band]int{
		models.BandStrongSell: 0, models.BandSell: 1, models.BandHold: 2, models.BandBuy: 3, models.BandStrongBuy: 4,
	}
	th := DefaultThresholds()
	prev := -1
	for x := -1.0; x <= 1.0; x += 0.001 {
		r := rank[th.Band(x)]
		assert.GreaterOrEqual(t, r, prev, "score=%v", x)
		prev = r
	}
}

func TestBelowAllCutsIsStrongSell(t *testing.T) {
	th := Thresholds{StrongBuy: 0.8, Buy: 0.5, Hold: 0, Sell: -0.5, StrongSell: -0.8}
	assert.Equal(t, models.BandStrongSell, th.Band(-0.9))
}

func TestWarningsOrder(t *testing.T) {
	c := newClassifier(t)

	w := c.Warnings(models.SentimentMeasurement{SourceCount: 3}, models.Indicators{RSI: 75, VolumeRatio: 0.2})
	assert.Equal(t, []string{"Overbought (RSI > 70)", "Low sentiment data (3 sources)", "Low volume"}, w)

	w = c.Warnings(models.SentimentMeasurement{SourceCount: 3}, models.Indicators{RSI: 25, VolumeRatio: 0.2})
	assert.Equal(t, []string{"Oversold (RSI < 30)", "Low sentiment data (3 sources)", "Low volume"}, w)

	w = c.Warnings(models.SentimentMeasurement{SourceCount: 10}, models.Indicators{RSI: 70, VolumeRatio: 0.5})
	assert.Empty(t, w)

	w = c.Warnings(models.SentimentMeasurement{SourceCount: 10}, models.Indicators{RSI: 30, VolumeRatio: 0.5})
	assert.Empty(t, w)
}

func TestClassifyIdempotent(t *testing.T) {
	c := newClassifier(t)
	s := models.SentimentMeasurement{Value: 0.2, SourceCount: 4, PerProvider: map[string]float64{"finnhub": 0.2}}
	tm := models.TechnicalMeasurement{Value: 0.1, Components: map[string]float64{"rsi": 0.1}}
	ind := models.Indicators{Price: 10, RSI: 80, VolumeRatio: 0.1}

	a := c.Classify("NVDA", "NVIDIA", s, tm, ind)
	b := c.Classify("NVDA", "NVIDIA", s, tm, ind)
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.ID)

	other := c.Classify("AMD", "AMD", s, tm, ind)
	assert.NotEqual(t, a.ID, other.ID)
}

func TestNewClassifierRejectsBadThresholds(t *testing.T) {
	_, err := NewClassifier(Thresholds{StrongBuy: 0.1, Buy: 0.5}, DefaultWeights())
	assert.Error(t, err)
}
