package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"streak-service/internal/config"
	"streak-service/internal/domain/entity"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher forwards notifications to a Kafka topic for other display surfaces
type Publisher struct {
	writer messageWriter
}

// NewPublisher creates a new notification publisher
func NewPublisher(cfg *config.KafkaConfig) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.NotificationTopic,
		Balancer:     &kafka.Hash{},
		BatchSize:    10,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &Publisher{writer: writer}
}

func (p *Publisher) Name() string { return "kafka" }

// Deliver publishes the notification keyed by habit ID
func (p *Publisher) Deliver(ctx context.Context, n *entity.Notification) error {
	data, err := encodeNotification(n)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(n.HabitID),
		Value: data,
		Time:  n.Created,
		Headers: []kafka.Header{
			{Key: userIDHeader, Value: []byte(n.UserID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
