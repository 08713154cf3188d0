package metrics

import (
	"errors"
	"testing"

	"StockSignal/internal/domain/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := NewWithRegistry(prometheus.NewRegistry())

	r.RecordProviderResult("finnhub", 12, nil)
	r.RecordProviderResult("finnhub", 0, errors.New("boom"))
	r.RecordRetry("finnhub")
	r.RecordSignal("AAPL", models.BandBuy, 0.42)
	r.RecordSignal("AAPL", models.BandHold, 0.1)
	r.RecordError("market_data")

	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerRequests.WithLabelValues("finnhub", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerRequests.WithLabelValues("finnhub", "error")))
	assert.Equal(t, 12.0, testutil.ToFloat64(r.providerItems.WithLabelValues("finnhub")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.providerRetries.WithLabelValues("finnhub")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.signalsTotal.WithLabelValues("AAPL", "BUY")))
	assert.Equal(t, 0.1, testutil.ToFloat64(r.combinedScore.WithLabelValues("AAPL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.errorsTotal.WithLabelValues("market_data")))
}
