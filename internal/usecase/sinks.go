package usecase

import (
	"context"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
)

// StoreSink saves every signal to the history store.
type StoreSink struct {
	store domrepo.SignalStore
}

func NewStoreSink(store domrepo.SignalStore) *StoreSink { return &StoreSink{store: store} }

func (s *StoreSink) Name() string { return "clickhouse" }

func (s *StoreSink) Consume(ctx context.Context, sig models.Signal) error {
	return s.store.Save(ctx, sig)
}

// PublisherSink publishes every signal to the message bus.
type PublisherSink struct {
	pub domrepo.SignalPublisher
}

func NewPublisherSink(pub domrepo.SignalPublisher) *PublisherSink { return &PublisherSink{pub: pub} }

func (s *PublisherSink) Name() string { return "kafka" }

func (s *PublisherSink) Consume(ctx context.Context, sig models.Signal) error {
	return s.pub.Publish(ctx, sig)
}
