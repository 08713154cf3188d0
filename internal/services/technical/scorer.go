package technical

import "StockSignal/internal/domain/models"

// Component keys of a TechnicalMeasurement.
const (
	ComponentMovingAverages = "moving_averages"
	ComponentRSI            = "rsi"
	ComponentMomentum       = "momentum"
	ComponentVolume         = "volume"
)

// Rule cut points.
const (
	rsiOversold       = 30.0
	rsiWeakOversold   = 40.0
	rsiWeakOverbought = 60.0
	rsiOverbought     = 70.0
	weekMomentumPct   = 5.0
	monthMomentumPct  = 10.0
	volumeSpikeRatio  = 1.5
)

// Weights scale each rule's contribution.
type Weights struct {
	MovingAverages float64
	RSI            float64
	Momentum       float64
	Volume         float64
}

// Scorer turns indicators into a bounded technical measurement.
type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer { return &Scorer{w: w} }

func (s *Scorer) Score(ind models.Indicators) models.TechnicalMeasurement {
	comps := map[string]float64{
		ComponentMovingAverages: s.movingAverages(ind),
		ComponentRSI:            s.rsi(ind.RSI),
		ComponentMomentum:       s.momentum(ind),
		ComponentVolume:         s.volume(ind.VolumeRatio),
	}
	total := 0.0
	for _, v := range comps {
		total += v
	}
	return models.TechnicalMeasurement{Value: Clip(total), Components: comps}
}

func (s *Scorer) movingAverages(ind models.Indicators) float64 {
	w := s.w.MovingAverages / 3
	score := 0.0
	for _, ma := range []float64{ind.MAShort, ind.MAMedium, ind.MALong} {
		if ind.Price > ma {
			score += w
		} else {
			score -= w
		}
	}
	return score
}

func (s *Scorer) rsi(rsi float64) float64 {
	switch {
	case rsi < rsiOversold:
		return s.w.RSI
	case rsi < rsiWeakOversold:
		return s.w.RSI / 2
	case rsi > rsiOverbought:
		return -s.w.RSI
	case rsi > rsiWeakOverbought:
		return -s.w.RSI / 2
	}
	return 0
}

func (s *Scorer) momentum(ind models.Indicators) float64 {
	w := s.w.Momentum / 2
	score := 0.0
	switch {
	case ind.WeekChangePct > weekMomentumPct:
		score += w
	case ind.WeekChangePct < -weekMomentumPct:
		score -= w
	}
	switch {
	case ind.MonthChangePct > monthMomentumPct:
		score += w
	case ind.MonthChangePct < -monthMomentumPct:
		score -= w
	}
	return score
}

func (s *Scorer) volume(ratio float64) float64 {
	if ratio > volumeSpikeRatio {
		return s.w.Volume
	}
	return 0
}

// Clip bounds v to [-1, 1].
func Clip(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
