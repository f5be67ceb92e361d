package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/notifications"
	"github.com/eventmate/backend/pkg/queue"
)

// NotificationProcessor delivers queued notifications: resolve the
// recipient, send, record the outcome.
type NotificationProcessor struct {
	repo   *notifications.Repository
	sender notifications.Sender
	queue  *queue.Queue
	logger *zap.Logger
}

// NewNotificationProcessor creates a notification delivery processor.
func NewNotificationProcessor(repo *notifications.Repository, sender notifications.Sender, q *queue.Queue, logger *zap.Logger) *NotificationProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationProcessor{repo: repo, sender: sender, queue: q, logger: logger}
}

// Process executes one notification delivery job.
func (p *NotificationProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeNotification {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.NotificationPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	email, name, err := p.repo.RecipientEmail(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if email == "" {
		// recipient deleted since enqueue; nothing to deliver
		if err := p.repo.MarkFailed(ctx, payload.NotificationID, "recipient not found"); err != nil {
			p.logger.Error("mark failed errored", zap.Error(err), zap.String("notification_id", payload.NotificationID.String()))
		}
		return nil
	}

	if err := p.sender.Send(ctx, email, name, payload.Subject, payload.Body); err != nil {
		if markErr := p.repo.MarkFailed(ctx, payload.NotificationID, err.Error()); markErr != nil {
			p.logger.Error("mark failed errored", zap.Error(markErr), zap.String("notification_id", payload.NotificationID.String()))
		}
		return fmt.Errorf("send: %w", err)
	}

	if err := p.repo.MarkSent(ctx, payload.NotificationID); err != nil {
		p.logger.Error("mark sent errored", zap.Error(err), zap.String("notification_id", payload.NotificationID.String()))
		return fmt.Errorf("update db: %w", err)
	}

	p.logger.Info("notification delivered",
		zap.String("notification_id", payload.NotificationID.String()),
		zap.String("kind", payload.Kind))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *NotificationProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("notification worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
