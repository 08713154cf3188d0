package service

import "context"

// PolarityScorer turns free text into polarity values in [-1, 1].
// The returned slice has one entry per input text, in order.
type PolarityScorer interface {
	Score(ctx context.Context, texts []string) ([]float64, error)
}
