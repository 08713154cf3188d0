package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "debug")

	l.Info("provider ok",
		String("provider", "finnhub"),
		Int("items", 12),
		Float64("mean", 0.25),
		Duration("latency_ms", 1500*time.Millisecond),
		Bool("cached", true),
	)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "info", m["level"])
	assert.Equal(t, "provider ok", m["message"])
	assert.Equal(t, "finnhub", m["provider"])
	assert.EqualValues(t, 12, m["items"])
	assert.EqualValues(t, 0.25, m["mean"])
	assert.EqualValues(t, 1500, m["latency_ms"])
	assert.Equal(t, true, m["cached"])
}

func TestWriterLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "warn")
	l.Info("dropped")
	l.Debug("dropped")
	assert.Zero(t, buf.Len())

	l.Error("kept", Error(errors.New("boom")))
	assert.Contains(t, buf.String(), "boom")
}

func TestWithAddsContext(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "info").With(String("symbol", "AAPL"))
	l.Info("analyzed")
	assert.Contains(t, buf.String(), `"symbol":"AAPL"`)
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(&Config{Level: "loud", Output: "stdout"})
	assert.Error(t, err)
}

func TestNopDiscards(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Error("nothing", Error(nil)) })
}
