package models

import "time"

// Failure records why one symbol produced no signal in a run.
type Failure struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// Report is the result of one watchlist pass. Signals keep watchlist order.
// Note: no transport (csv/console) concerns here.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Signals    []Signal  `json:"signals"`
	Failures   []Failure `json:"failures,omitempty"`
}

// Summary aggregates a report for display.
type Summary struct {
	Total         int     `json:"total"`
	Buy           int     `json:"buy"`
	Sell          int     `json:"sell"`
	Hold          int     `json:"hold"`
	AvgConfidence float64 `json:"avg_confidence"`
	TopPick       *Signal `json:"top_pick,omitempty"`
}

// Summarize counts bands, averages confidence and picks the highest combined score.
func (r *Report) Summarize() Summary {
	s := Summary{Total: len(r.Signals)}
	if len(r.Signals) == 0 {
		return s
	}
	var conf float64
	for i := range r.Signals {
		sig := &r.Signals[i]
		switch {
		case sig.Band.IsBuy():
			s.Buy++
		case sig.Band.IsSell():
			s.Sell++
		default:
			s.Hold++
		}
		conf += sig.Confidence
		if s.TopPick == nil || sig.CombinedScore > s.TopPick.CombinedScore {
			s.TopPick = sig
		}
	}
	s.AvgConfidence = conf / float64(len(r.Signals))
	return s
}
