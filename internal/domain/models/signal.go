package models

import (
	"strings"
	"time"
)

// Band is the discrete recommendation a combined score falls into.
type Band string

const (
	BandStrongBuy  Band = "STRONG_BUY"
	BandBuy        Band = "BUY"
	BandHold       Band = "HOLD"
	BandSell       Band = "SELL"
	BandStrongSell Band = "STRONG_SELL"
)

// Label renders the band for humans ("STRONG BUY").
func (b Band) Label() string { return strings.ReplaceAll(string(b), "_", " ") }

func (b Band) IsBuy() bool  { return b == BandStrongBuy || b == BandBuy }
func (b Band) IsSell() bool { return b == BandStrongSell || b == BandSell }

// SentimentMeasurement is the pooled opinion score for one instrument.
// Value is 0 whenever SourceCount is 0.
type SentimentMeasurement struct {
	Value       float64            `json:"value"`
	SourceCount int                `json:"source_count"`
	PerProvider map[string]float64 `json:"per_provider,omitempty"`
}

// TechnicalMeasurement is the clipped sum of the rule contributions.
// Components keep the pre-clip values.
type TechnicalMeasurement struct {
	Value      float64            `json:"value"`
	Components map[string]float64 `json:"components"`
}

// Indicators is the snapshot derived from a price series.
type Indicators struct {
	Price          float64 `json:"price"`
	MAShort        float64 `json:"ma_20"`
	MAMedium       float64 `json:"ma_50"`
	MALong         float64 `json:"ma_100"`
	RSI            float64 `json:"rsi"`
	VolumeRatio    float64 `json:"volume_ratio"`
	WeekChangePct  float64 `json:"week_change_pct"`
	MonthChangePct float64 `json:"month_change_pct"`
}

// Signal is the final classified recommendation for one instrument.
type Signal struct {
	ID            string               `json:"id"`
	Symbol        string               `json:"symbol"`
	DisplayName   string               `json:"display_name"`
	Band          Band                 `json:"band"`
	CombinedScore float64              `json:"combined_score"`
	Confidence    float64              `json:"confidence"`
	Sentiment     SentimentMeasurement `json:"sentiment"`
	Technical     TechnicalMeasurement `json:"technical"`
	Price         float64              `json:"price"`
	WeekChangePct float64              `json:"week_change_pct"`
	RSI           float64              `json:"rsi"`
	VolumeRatio   float64              `json:"volume_ratio"`
	Warnings      []string             `json:"warnings"`
	Timestamp     time.Time            `json:"timestamp"`
}

// PriceBar is one daily observation.
type PriceBar struct {
	Time   time.Time `json:"t"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
}

// PriceSeries is ordered by Time ascending.
type PriceSeries []PriceBar

// Closes returns the close column.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volume column.
func (s PriceSeries) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}
