package service

import (
	"context"

	"streak-service/internal/domain/entity"
)

// NotificationDispatcher turns coordinator outcomes into user-visible notifications.
// Both methods are best-effort and never fail the caller.
type NotificationDispatcher interface {
	// NotifyMilestone enqueues a streak milestone notification
	NotifyMilestone(ctx context.Context, intent entity.NotificationIntent)

	// NotifyReminder enqueues a "habit is due" notification
	NotifyReminder(ctx context.Context, intent entity.NotificationIntent)
}

// NotificationChannel renders or forwards a notification to its final surface
type NotificationChannel interface {
	Name() string
	Deliver(ctx context.Context, notification *entity.Notification) error
}
