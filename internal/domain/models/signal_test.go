package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBandLabel(t *testing.T) {
	assert.Equal(t, "STRONG BUY", BandStrongBuy.Label())
	assert.Equal(t, "HOLD", BandHold.Label())
	assert.True(t, BandBuy.IsBuy())
	assert.True(t, BandStrongSell.IsSell())
	assert.False(t, BandHold.IsBuy())
	assert.False(t, BandHold.IsSell())
}

func TestReportSummarize(t *testing.T) {
	r := &Report{Signals: []Signal{
		{Symbol: "AAPL", Band: BandStrongBuy, CombinedScore: 0.87, Confidence: 87},
		{Symbol: "MSFT", Band: BandHold, CombinedScore: -0.04, Confidence: 4},
		{Symbol: "TSLA", Band: BandSell, CombinedScore: -0.5, Confidence: 50},
	}}

	s := r.Summarize()
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Buy)
	assert.Equal(t, 1, s.Hold)
	assert.Equal(t, 1, s.Sell)
	assert.InDelta(t, 47.0, s.AvgConfidence, 1e-9)
	require.NotNil(t, s.TopPick)
	assert.Equal(t, "AAPL", s.TopPick.Symbol)
}

func TestReportSummarizeEmpty(t *testing.T) {
	s := (&Report{}).Summarize()
	assert.Equal(t, 0, s.Total)
	assert.Nil(t, s.TopPick)
}

func TestPriceSeriesColumns(t *testing.T) {
	s := PriceSeries{{Close: 1, Volume: 10}, {Close: 2, Volume: 20}}
	assert.Equal(t, []float64{1, 2}, s.Closes())
	assert.Equal(t, []float64{10, 20}, s.Volumes())
}
