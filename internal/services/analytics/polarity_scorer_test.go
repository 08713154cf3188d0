package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer(t *testing.T, batch int, h http.HandlerFunc) *PolarityScorer {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewPolarityScorer(config.ScorerConfig{URL: srv.URL + "/", Path: "sentiment/polarity", Timeout: time.Second, BatchSize: batch})
}

func TestPolarityScorerBatches(t *testing.T) {
	var calls atomic.Int32
	s := newScorer(t, 2, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sentiment/polarity", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		calls.Add(1)

		var req polarityRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		scores := make([]float64, len(req.Texts))
		for i, txt := range req.Texts {
			switch txt {
			case "great":
				scores[i] = 0.8
			case "awful":
				scores[i] = -3
			}
		}
		_ = json.NewEncoder(w).Encode(polarityResponse{Scores: scores})
	})

	got, err := s.Score(context.Background(), []string{"great", "  ", "awful", "meh"})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.8, -1, 0}, got)
	assert.EqualValues(t, 2, calls.Load())
}

func TestPolarityScorerEmptyInput(t *testing.T) {
	s := newScorer(t, 8, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	got, err := s.Score(context.Background(), []string{"", " "})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPolarityScorerCountMismatch(t *testing.T) {
	s := newScorer(t, 8, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"scores":[0.1]}`))
	})
	_, err := s.Score(context.Background(), []string{"a", "b"})
	assert.ErrorContains(t, err, "got 1 scores for 2 texts")
}

func TestPolarityScorerStatusError(t *testing.T) {
	s := newScorer(t, 8, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := s.Score(context.Background(), []string{"a"})
	require.Error(t, err)
	se, ok := xhttp.AsStatusError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
}

func TestPostJSONNotConfigured(t *testing.T) {
	var b *HTTPServiceBase
	assert.ErrorIs(t, b.PostJSON(context.Background(), "/x", nil, nil), errNotConfigured)
	assert.ErrorIs(t, NewHTTPServiceBase("", 0).PostJSON(context.Background(), "/x", nil, nil), errNotConfigured)
}
