package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"streak-service/internal/domain/entity"
	"streak-service/internal/domain/repository"
	"streak-service/internal/domain/service"
	"streak-service/internal/errors"
	"streak-service/internal/logger"
)

// DispatcherConfig configures the notification dispatcher
type DispatcherConfig struct {
	SuppressionWindow time.Duration
	QueueSize         int
	Workers           int
}

// NotificationService de-duplicates notification intents and delivers them to channels
// from a bounded queue drained by a fixed set of workers.
type NotificationService struct {
	dedup    repository.DedupStore
	channels []service.NotificationChannel
	window   time.Duration
	now      func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan entity.NotificationIntent
	wg     sync.WaitGroup
}

var _ service.NotificationDispatcher = (*NotificationService)(nil)

// NewNotificationService creates a dispatcher and starts its workers
func NewNotificationService(
	dedup repository.DedupStore,
	channels []service.NotificationChannel,
	cfg DispatcherConfig,
) *NotificationService {
	if cfg.SuppressionWindow <= 0 {
		cfg.SuppressionWindow = 24 * time.Hour
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}

	s := &NotificationService{
		dedup:    dedup,
		channels: channels,
		window:   cfg.SuppressionWindow,
		now:      time.Now,
		queue:    make(chan entity.NotificationIntent, cfg.QueueSize),
	}

	for i := 0; i < cfg.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *NotificationService) NotifyMilestone(ctx context.Context, intent entity.NotificationIntent) {
	intent.Kind = entity.NotificationKindMilestone
	if intent.Streak <= 0 {
		return
	}
	s.enqueue(intent)
}

func (s *NotificationService) NotifyReminder(ctx context.Context, intent entity.NotificationIntent) {
	intent.Kind = entity.NotificationKindReminder
	s.enqueue(intent)
}

func (s *NotificationService) enqueue(intent entity.NotificationIntent) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		logger.Warn("dispatcher closed, dropping notification", "habit_id", intent.HabitID, "kind", intent.Kind)
		return
	}

	select {
	case s.queue <- intent:
	default:
		logger.Warn("notification queue full, dropping notification", "habit_id", intent.HabitID, "kind", intent.Kind)
	}
}

func (s *NotificationService) worker() {
	defer s.wg.Done()
	for intent := range s.queue {
		s.deliver(context.Background(), intent)
	}
}

func (s *NotificationService) deliver(ctx context.Context, intent entity.NotificationIntent) {
	key := intent.DedupKey()
	fresh, err := s.dedup.MarkIfUnseen(ctx, key, s.window)
	if err != nil {
		// deliver when the store cannot answer
		logger.Warn("dedup store unavailable", "key", key, "error", err)
		fresh = true
	}
	if !fresh {
		logger.Debug("duplicate notification suppressed", "key", key)
		return
	}

	subject, text := intent.Render()
	notification := &entity.Notification{
		ID:      uuid.New().String(),
		Kind:    intent.Kind,
		HabitID: intent.HabitID,
		UserID:  intent.UserID,
		Title:   intent.Title,
		Streak:  intent.Streak,
		Subject: subject,
		Text:    text,
		Created: s.now().UTC(),
	}

	failed := 0
	for _, ch := range s.channels {
		if err := ch.Deliver(ctx, notification); err != nil {
			failed++
			failure := errors.NewNotificationDeliveryFailure(ch.Name(), err)
			logger.Error(failure.Error(), "habit_id", intent.HabitID, "kind", intent.Kind, "error", err)
		}
	}

	// nobody saw it, so a later identical intent may try again
	if failed > 0 && failed == len(s.channels) {
		if err := s.dedup.Forget(ctx, key); err != nil {
			logger.Warn("failed to release dedup key", "key", key, "error", err)
		}
	}
}

// Close stops accepting notifications and waits until queued ones are delivered
func (s *NotificationService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

// LogChannel writes notifications to the service log
type LogChannel struct{}

func (LogChannel) Name() string { return "log" }

func (LogChannel) Deliver(ctx context.Context, n *entity.Notification) error {
	logger.Info(n.Subject, "text", n.Text, "habit_id", n.HabitID, "user_id", n.UserID, "kind", n.Kind)
	return nil
}
