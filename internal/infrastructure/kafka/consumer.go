package kafka

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"streak-service/internal/config"
	"streak-service/internal/domain/entity"
	"streak-service/internal/identity"
	"streak-service/internal/logger"
)

// userIDHeader carries the user ID set by the producing service
const userIDHeader = "user_id"

// EventHandler receives decoded trigger payloads
type EventHandler interface {
	HandleCompletion(ctx context.Context, payload map[string]any, source entity.Source, listener entity.Listener)
	HandleReminder(ctx context.Context, payload map[string]any, source entity.Source)
}

// Topic kinds understood by the consumer
type TopicKind int

const (
	CompletionTopic TopicKind = iota
	ReminderTopic
)

type Consumer struct {
	reader  *kafka.Reader
	kind    TopicKind
	handler EventHandler
}

// NewConsumer creates a new Kafka consumer for one trigger topic
func NewConsumer(cfg *config.KafkaConfig, kind TopicKind, handler EventHandler) *Consumer {
	topic := cfg.CompletionTopic
	if kind == ReminderTopic {
		topic = cfg.ReminderTopic
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.GroupID,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})

	return &Consumer{
		reader:  reader,
		kind:    kind,
		handler: handler,
	}
}

// Start consumes messages until ctx is done
func (c *Consumer) Start(ctx context.Context) error {
	logger.Info("starting kafka consumer", "topic", c.reader.Config().Topic)

	for {
		message, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("stopping kafka consumer", "topic", c.reader.Config().Topic)
				return c.reader.Close()
			}
			logger.Error("error reading message", "error", err)
			continue
		}

		c.processMessage(ctx, message)
	}
}

// processMessage decodes a message and hands it to ingestion
func (c *Consumer) processMessage(ctx context.Context, message kafka.Message) {
	payload, err := decodePayload(message.Value)
	if err != nil {
		logger.Debug("dropping undecodable message", "offset", message.Offset, "error", err)
		return
	}

	for _, h := range message.Headers {
		if h.Key == userIDHeader && len(h.Value) > 0 {
			ctx = identity.WithUserID(ctx, string(h.Value))
		}
	}

	switch c.kind {
	case ReminderTopic:
		c.handler.HandleReminder(ctx, payload, entity.SourceReminder)
	default:
		c.handler.HandleCompletion(ctx, payload, entity.SourceBroadcast, logListener{})
	}
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}

// logListener records broadcast outcomes, which have no caller waiting on them
type logListener struct{}

func (logListener) Completed(habitID string, streak int) {
	logger.Info("broadcast completion applied", "habit_id", habitID, "streak", streak)
}

func (logListener) Uncompleted(habitID string, streak int) {
	logger.Info("broadcast uncompletion applied", "habit_id", habitID, "streak", streak)
}

func (logListener) StreakUpdated(habitID string, streak int) {
	logger.Debug("broadcast completion was a no-op", "habit_id", habitID, "streak", streak)
}

func (logListener) Error(habitID string, message string) {
	logger.Warn("broadcast completion failed", "habit_id", habitID, "error", message)
}
