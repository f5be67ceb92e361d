package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification kinds and delivery statuses.
const (
	NotificationEventAccepted     = "event_request_accepted"
	NotificationEventRejected     = "event_request_rejected"
	NotificationCommunityAccepted = "community_request_accepted"
	NotificationCommunityRejected = "community_request_rejected"

	NotificationQueued = "queued"
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Notification records one delivery attempt stream for a user.
type Notification struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Kind      string     `json:"kind"`
	Subject   string     `json:"subject"`
	Body      string     `json:"body"`
	Status    string     `json:"status"`
	Error     string     `json:"error,omitempty"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
