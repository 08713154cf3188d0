package signal

import (
	"fmt"
	"math"
	"time"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/services/technical"

	"github.com/google/uuid"
)

// Thresholds are the lower cut points of each band, highest first.
type Thresholds struct {
	StrongBuy  float64
	Buy        float64
	Hold       float64
	Sell       float64
	StrongSell float64
}

// Weights blend sentiment and technical measurements.
type Weights struct {
	Sentiment float64
	Technical float64
}

// WarningRules decide which contextual warnings a signal carries.
type WarningRules struct {
	OverboughtRSI       float64
	OversoldRSI         float64
	MinSentimentSources int
	LowVolumeRatio      float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{StrongBuy: 0.7, Buy: 0.4, Hold: -0.4, Sell: -0.7, StrongSell: -1.0}
}

func DefaultWeights() Weights { return Weights{Sentiment: 0.3, Technical: 0.7} }

func DefaultWarningRules() WarningRules {
	return WarningRules{OverboughtRSI: 70, OversoldRSI: 30, MinSentimentSources: 10, LowVolumeRatio: 0.5}
}

// Validate rejects cut points that are not finite and non-increasing.
func (t Thresholds) Validate() error {
	cuts := []float64{t.StrongBuy, t.Buy, t.Hold, t.Sell, t.StrongSell}
	for i, c := range cuts {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("threshold %d is not finite", i)
		}
		if i > 0 && c > cuts[i-1] {
			return fmt.Errorf("thresholds must be non-increasing: %g > %g", c, cuts[i-1])
		}
	}
	return nil
}

// Band maps a combined score onto the first band whose cut point it reaches.
func (t Thresholds) Band(score float64) models.Band {
	switch {
	case score >= t.StrongBuy:
		return models.BandStrongBuy
	case score >= t.Buy:
		return models.BandBuy
	case score >= t.Hold:
		return models.BandHold
	case score >= t.Sell:
		return models.BandSell
	default:
		return models.BandStrongSell
	}
}

type ClassifierOption func(*Classifier)

// WithClock injects the time source used for signal timestamps.
func WithClock(now func() time.Time) ClassifierOption {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

func WithWarningRules(r WarningRules) ClassifierOption {
	return func(c *Classifier) { c.rules = r }
}

// Classifier fuses measurements into a Signal. It holds no mutable state.
type Classifier struct {
	thresholds Thresholds
	weights    Weights
	rules      WarningRules
	now        func() time.Time
}

func NewClassifier(t Thresholds, w Weights, opts ...ClassifierOption) (*Classifier, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{
		thresholds: t,
		weights:    w,
		rules:      DefaultWarningRules(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify combines the measurements. The same inputs and clock always yield the same Signal.
func (c *Classifier) Classify(symbol, displayName string, s models.SentimentMeasurement, t models.TechnicalMeasurement, ind models.Indicators) models.Signal {
	combined := technical.Clip(s.Value*c.weights.Sentiment + t.Value*c.weights.Technical)
	ts := c.now().UTC()

	return models.Signal{
		ID:            signalID(symbol, ts),
		Symbol:        symbol,
		DisplayName:   displayName,
		Band:          c.thresholds.Band(combined),
		CombinedScore: combined,
		Confidence:    math.Abs(combined) * 100,
		Sentiment:     s,
		Technical:     t,
		Price:         ind.Price,
		WeekChangePct: ind.WeekChangePct,
		RSI:           ind.RSI,
		VolumeRatio:   ind.VolumeRatio,
		Warnings:      c.Warnings(s, ind),
		Timestamp:     ts,
	}
}

// Warnings lists applicable warnings in fixed order: overbought, oversold, low data, low volume.
func (c *Classifier) Warnings(s models.SentimentMeasurement, ind models.Indicators) []string {
	out := make([]string, 0, 4)
	if ind.RSI > c.rules.OverboughtRSI {
		out = append(out, fmt.Sprintf("Overbought (RSI > %g)", c.rules.OverboughtRSI))
	}
	if ind.RSI < c.rules.OversoldRSI {
		out = append(out, fmt.Sprintf("Oversold (RSI < %g)", c.rules.OversoldRSI))
	}
	if s.SourceCount < c.rules.MinSentimentSources {
		out = append(out, fmt.Sprintf("Low sentiment data (%d sources)", s.SourceCount))
	}
	if ind.VolumeRatio < c.rules.LowVolumeRatio {
		out = append(out, "Low volume")
	}
	return out
}

func signalID(symbol string, ts time.Time) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(symbol+"|"+ts.Format(time.RFC3339Nano))).String()
}
