package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"ms-inventory/internal/config"
	"ms-inventory/internal/models"
)

type Producer struct {
	created   *kafka.Writer
	updated   *kafka.Writer
	cancelled *kafka.Writer
}

func NewProducer(brokers []string, topics config.TopicConfig) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return kafka.NewWriter(kafka.WriterConfig{
			Brokers: brokers,
			Topic:   topic,
		})
	}
	return &Producer{
		created:   newWriter(topics.TransactionCreated),
		updated:   newWriter(topics.TransactionUpdated),
		cancelled: newWriter(topics.TransactionCancelled),
	}
}

// PublishTransactionCreated streams a reservation event to Kafka
func (p *Producer) PublishTransactionCreated(txn models.Transaction) error {
	return p.publish(p.created, txn)
}

// PublishTransactionUpdated streams a status transition event to Kafka
func (p *Producer) PublishTransactionUpdated(txn models.Transaction) error {
	return p.publish(p.updated, txn)
}

// PublishTransactionCancelled streams a cancellation/release event to Kafka
func (p *Producer) PublishTransactionCancelled(txn models.Transaction) error {
	return p.publish(p.cancelled, txn)
}

func (p *Producer) publish(w *kafka.Writer, txn models.Transaction) error {
	msgBytes, err := json.Marshal(txn)
	if err != nil {
		return err
	}

	return w.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(txn.TransactionID),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	for _, w := range []*kafka.Writer{p.created, p.updated, p.cancelled} {
		if err := w.Close(); err != nil {
			return err
		}
	}
	return nil
}

// NoopPublisher satisfies the service's publisher interface when Kafka is
// disabled or mocked in local development.
type NoopPublisher struct{}

func (NoopPublisher) PublishTransactionCreated(models.Transaction) error   { return nil }
func (NoopPublisher) PublishTransactionUpdated(models.Transaction) error   { return nil }
func (NoopPublisher) PublishTransactionCancelled(models.Transaction) error { return nil }
