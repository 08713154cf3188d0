package technical

import (
	"testing"
	"time"

	"StockSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(closes []float64, vol float64) models.PriceSeries {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		out[i] = models.PriceBar{Time: start.AddDate(0, 0, i), Close: c, Volume: vol}
	}
	return out
}

func ramp(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

func TestComputeUnavailable(t *testing.T) {
	e := NewEngine(DefaultPeriods())

	_, err := e.Compute(nil)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = e.Compute(series(ramp(14, 100, 1), 1000))
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = e.Compute(series(ramp(15, 100, 1), 1000))
	assert.NoError(t, err)
}

func TestComputeRisingSeries(t *testing.T) {
	e := NewEngine(DefaultPeriods())
	ind, err := e.Compute(series(ramp(120, 100, 1), 1000))
	require.NoError(t, err)

	assert.Equal(t, 219.0, ind.Price)
	assert.InDelta(t, 209.5, ind.MAShort, 1e-9)
	assert.InDelta(t, 194.5, ind.MAMedium, 1e-9)
	assert.InDelta(t, 169.5, ind.MALong, 1e-9)
	assert.Equal(t, 100.0, ind.RSI)
	assert.InDelta(t, 1.0, ind.VolumeRatio, 1e-9)
	assert.InDelta(t, (219.0-214.0)/214.0*100, ind.WeekChangePct, 1e-9)
	assert.InDelta(t, (219.0-199.0)/199.0*100, ind.MonthChangePct, 1e-9)
}

func TestTrailingMeanShortSeries(t *testing.T) {
	assert.InDelta(t, 2.0, TrailingMean([]float64{1, 2, 3}, 100), 1e-9)
	assert.InDelta(t, 2.5, TrailingMean([]float64{1, 2, 3}, 2), 1e-9)
	assert.Equal(t, 0.0, TrailingMean(nil, 20))
}

func TestRSI(t *testing.T) {
	// alternating +2 / -1 over 14 deltas: 7 gains of 2, 7 losses of 1
	closes := []float64{100}
	for i := 0; i < 14; i++ {
		last := closes[len(closes)-1]
		if i%2 == 0 {
			closes = append(closes, last+2)
		} else {
			closes = append(closes, last-1)
		}
	}
	// rs = (14/14)/(7/14) = 2 -> 100 - 100/3
	assert.InDelta(t, 100-100.0/3, RSI(closes, 14), 1e-9)

	falling := ramp(20, 100, -1)
	assert.InDelta(t, 0.0, RSI(falling, 14), 1e-9)

	flat := ramp(20, 100, 0)
	assert.Equal(t, 100.0, RSI(flat, 14))
}

func TestRSIBounded(t *testing.T) {
	closes := []float64{10, 12, 9, 15, 3, 30, 29, 28, 40, 2, 50, 51, 49, 60, 1, 70}
	v := RSI(closes, 14)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 100.0)
}

func TestVolumeRatio(t *testing.T) {
	vols := make([]float64, 20)
	for i := range vols {
		vols[i] = 100
	}
	vols[19] = 290 // mean = (19*100+290)/20 = 109.5
	assert.InDelta(t, 290/109.5, VolumeRatio(vols, 20), 1e-9)

	assert.Equal(t, 1.0, VolumeRatio(make([]float64, 20), 20))
	assert.Equal(t, 1.0, VolumeRatio(nil, 20))
}

func TestPctChange(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 110}
	assert.InDelta(t, 10.0, PctChange(closes, 5), 1e-9)
	assert.Equal(t, 0.0, PctChange(closes, 20))
	assert.Equal(t, 0.0, PctChange([]float64{0, 1, 2, 3, 4, 5}, 5))

	// baseline is the close five bars back, not four
	assert.InDelta(t, 120.0, PctChange([]float64{100, 200, 200, 200, 200, 220}, 5), 1e-9)
}
