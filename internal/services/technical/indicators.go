package technical

import (
	"errors"
	"fmt"

	"StockSignal/internal/domain/models"
)

// ErrUnavailable is returned when a series is too short to compute indicators.
var ErrUnavailable = errors.New("indicators unavailable")

// Periods are the window lengths, in bars, used by the engine.
type Periods struct {
	MAShort  int
	MAMedium int
	MALong   int
	RSI      int
	Volume   int
	Week     int
	Month    int
}

// DefaultPeriods are 20/50/100 moving averages, RSI 14, volume 20, momentum 5/20.
func DefaultPeriods() Periods {
	return Periods{MAShort: 20, MAMedium: 50, MALong: 100, RSI: 14, Volume: 20, Week: 5, Month: 20}
}

// Engine derives an Indicators snapshot from a daily series.
type Engine struct {
	p Periods
}

func NewEngine(p Periods) *Engine { return &Engine{p: p} }

// MinPoints is the shortest series Compute accepts.
func (e *Engine) MinPoints() int { return e.p.RSI + 1 }

// Compute evaluates every indicator at the last bar of series.
func (e *Engine) Compute(series models.PriceSeries) (models.Indicators, error) {
	if len(series) < e.MinPoints() {
		return models.Indicators{}, fmt.Errorf("%w: have %d points, need %d", ErrUnavailable, len(series), e.MinPoints())
	}
	closes := series.Closes()
	vols := series.Volumes()

	return models.Indicators{
		Price:          closes[len(closes)-1],
		MAShort:        TrailingMean(closes, e.p.MAShort),
		MAMedium:       TrailingMean(closes, e.p.MAMedium),
		MALong:         TrailingMean(closes, e.p.MALong),
		RSI:            RSI(closes, e.p.RSI),
		VolumeRatio:    VolumeRatio(vols, e.p.Volume),
		WeekChangePct:  PctChange(closes, e.p.Week),
		MonthChangePct: PctChange(closes, e.p.Month),
	}, nil
}

// TrailingMean averages the last window values, or all of them when fewer exist.
func TrailingMean(xs []float64, window int) float64 {
	if len(xs) == 0 || window <= 0 {
		return 0
	}
	if window > len(xs) {
		window = len(xs)
	}
	sum := 0.0
	for _, x := range xs[len(xs)-window:] {
		sum += x
	}
	return sum / float64(window)
}

// RSI is the simple-mean relative strength index over the last period deltas.
// A zero mean loss saturates at 100.
func RSI(closes []float64, period int) float64 {
	if period <= 0 || len(closes) < period+1 {
		return 50
	}
	var gain, loss float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	gain /= float64(period)
	loss /= float64(period)
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}

// VolumeRatio compares the last volume with the trailing mean that includes it.
func VolumeRatio(vols []float64, period int) float64 {
	if len(vols) == 0 {
		return 1
	}
	avg := TrailingMean(vols, period)
	if avg <= 0 {
		return 1
	}
	return vols[len(vols)-1] / avg
}

// PctChange is the percent move of the last close against the close lookback bars earlier.
// The baseline is closes[n-1-lookback], a full lookback bars back, one bar further
// than a pandas iloc[-lookback] offset.
// Not enough history, or a zero baseline, yields 0.
func PctChange(closes []float64, lookback int) float64 {
	i := len(closes) - 1 - lookback
	if lookback <= 0 || i < 0 {
		return 0
	}
	base := closes[i]
	if base == 0 {
		return 0
	}
	return (closes[len(closes)-1] - base) / base * 100
}
