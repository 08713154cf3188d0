package repository

import (
	"context"
	"fmt"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
)

type kafkaPublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSignalPublisher writes each signal as JSON keyed by symbol.
type KafkaSignalPublisher struct {
	p     kafkaPublisher
	topic string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

func NewKafkaSignalPublisher(p kafkaPublisher, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{p: p, topic: topic}
}

func (k *KafkaSignalPublisher) Publish(ctx context.Context, s models.Signal) error {
	if err := k.p.Publish(ctx, k.topic, []byte(s.Symbol), s); err != nil {
		return fmt.Errorf("publish signal %s: %w", s.Symbol, err)
	}
	return nil
}

func (k *KafkaSignalPublisher) Close() error { return k.p.Close() }
