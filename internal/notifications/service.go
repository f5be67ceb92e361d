package notifications

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/queue"
)

// Enqueuer hands delivery jobs to the background worker.
type Enqueuer interface {
	EnqueueNotification(ctx context.Context, payload queue.NotificationPayload) error
}

// NotificationStore is the persistence surface the service depends on.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

// Service records notifications and queues them for delivery. It satisfies
// the Notifier interfaces of the events and communities packages.
type Service struct {
	store  NotificationStore
	queue  Enqueuer
	logger *zap.Logger
}

func NewService(store NotificationStore, q Enqueuer, logger *zap.Logger) *Service {
	return &Service{store: store, queue: q, logger: logger}
}

// Notify persists a notification row, then queues the delivery job. The row
// is the record of truth; a failed enqueue leaves it queued for a later
// sweep rather than failing the caller's workflow.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, subject, body string) error {
	n := &models.Notification{UserID: userID, Kind: kind, Subject: subject, Body: body}
	if err := s.store.Create(ctx, n); err != nil {
		return err
	}
	if s.queue == nil {
		return nil
	}
	err := s.queue.EnqueueNotification(ctx, queue.NotificationPayload{
		NotificationID: n.ID,
		UserID:         userID,
		Kind:           kind,
		Subject:        subject,
		Body:           body,
	})
	if err != nil {
		s.logger.Warn("notification enqueue failed", zap.Error(err), zap.String("notification_id", n.ID.String()))
	}
	return nil
}
