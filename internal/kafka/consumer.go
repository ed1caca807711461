package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/segmentio/kafka-go"

	"ms-inventory/internal/models"
)

// PaymentResultEvent is what the payment gateway publishes once a payment
// attempt settles. This service never touches the payment itself; it only
// applies the resulting status transition.
type PaymentResultEvent struct {
	TransactionID string                   `json:"transaction_id"`
	Status        models.TransactionStatus `json:"status"`
	Reason        string                   `json:"reason,omitempty"`
}

type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader}
}

// Start consumes payment result events until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, handler func(event PaymentResultEvent)) {
	log.Println("Kafka payment-result consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Error reading message: %v", err)
			continue
		}

		var event PaymentResultEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("Failed to unmarshal payment result: %v", err)
			continue
		}

		log.Printf("Received payment result: txn=%s status=%s", event.TransactionID, event.Status)
		handler(event)
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
