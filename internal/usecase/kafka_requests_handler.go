package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/services/technical"
	pkgkafka "StockSignal/pkg/kafka"
	"StockSignal/pkg/util"
)

// SymbolAnalyzer analyses one symbol on demand.
type SymbolAnalyzer interface {
	AnalyzeSymbol(ctx context.Context, symbol string) (models.Signal, error)
}

// KafkaRequestsHandler consumes {symbol} analysis requests.
type KafkaRequestsHandler struct {
	topic    string
	analyzer SymbolAnalyzer
	metrics  domrepo.Metrics
}

func NewKafkaRequestsHandler(topic string, analyzer SymbolAnalyzer, metrics domrepo.Metrics) *KafkaRequestsHandler {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &KafkaRequestsHandler{topic: topic, analyzer: analyzer, metrics: metrics}
}

func (h *KafkaRequestsHandler) Topic() string { return h.topic }

// Handle returns nil for malformed or unanswerable requests so the consumer
// does not retry what can never succeed.
func (h *KafkaRequestsHandler) Handle(ctx context.Context, b []byte) error {
	var req models.AnalysisRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return nil
	}
	symbol := util.NormalizeSymbol(req.Symbol)
	if symbol == "" {
		h.metrics.RecordError("consumer_empty_symbol")
		return nil
	}

	start := time.Now()
	_, err := h.analyzer.AnalyzeSymbol(ctx, symbol)
	h.metrics.RecordLatency("consumer_analyze", time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domrepo.ErrNoData) || errors.Is(err, technical.ErrUnavailable) {
			h.metrics.RecordError("consumer_no_data")
			return nil
		}
		h.metrics.RecordError("consumer_analyze")
		return fmt.Errorf("analyze request %s: %w", symbol, err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaRequestsHandler)(nil)
