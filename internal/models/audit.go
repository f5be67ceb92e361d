package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit scopes and outcomes for request resolutions.
const (
	AuditScopeEvent     = "event"
	AuditScopeCommunity = "community"

	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeCancelled = "cancelled"
)

// AuditEntry is one append-only record of a join-request resolution.
// ActorID is nil when the requester resolved their own request (cancel).
type AuditEntry struct {
	ID        uuid.UUID  `json:"id"`
	Scope     string     `json:"scope"`
	ParentID  uuid.UUID  `json:"parent_id"`
	RequestID uuid.UUID  `json:"request_id"`
	UserID    uuid.UUID  `json:"user_id"`
	ActorID   *uuid.UUID `json:"actor_id,omitempty"`
	Outcome   string     `json:"outcome"`
	CreatedAt time.Time  `json:"created_at"`
}
