package analytics

import (
	"context"
	"fmt"
	"math"
	"strings"

	"StockSignal/internal/domain/service"
	"StockSignal/pkg/config"
)

const defaultPolarityPath = "/sentiment/polarity"

type polarityRequest struct {
	Texts []string `json:"texts"`
}

type polarityResponse struct {
	Scores []float64 `json:"scores"`
}

// PolarityScorer scores texts through the remote analysis service.
// Texts are sent in batches; one score comes back per text, in order.
type PolarityScorer struct {
	*HTTPServiceBase
	path      string
	batchSize int
}

var _ service.PolarityScorer = (*PolarityScorer)(nil)

func NewPolarityScorer(cfg config.ScorerConfig) *PolarityScorer {
	path := cfg.Path
	if path == "" {
		path = defaultPolarityPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 64
	}
	return &PolarityScorer{
		HTTPServiceBase: NewHTTPServiceBase(cfg.URL, cfg.Timeout),
		path:            path,
		batchSize:       batch,
	}
}

// Score returns a polarity in [-1, 1] for each non-blank text.
// Blank texts are skipped, so the result may be shorter than the input.
func (s *PolarityScorer) Score(ctx context.Context, texts []string) ([]float64, error) {
	clean := make([]string, 0, len(texts))
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	if len(clean) == 0 {
		return nil, nil
	}

	out := make([]float64, 0, len(clean))
	for start := 0; start < len(clean); start += s.batchSize {
		end := start + s.batchSize
		if end > len(clean) {
			end = len(clean)
		}
		batch := clean[start:end]

		var resp polarityResponse
		if err := s.PostJSON(ctx, s.path, polarityRequest{Texts: batch}, &resp); err != nil {
			return nil, err
		}
		if len(resp.Scores) != len(batch) {
			return nil, fmt.Errorf("polarity: got %d scores for %d texts", len(resp.Scores), len(batch))
		}
		for _, v := range resp.Scores {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			out = append(out, math.Max(-1, math.Min(1, v)))
		}
	}
	return out, nil
}
