package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of a join request. Resolved requests
// are deleted; only pending rows live in the request tables, outcomes go to
// the audit log.
type RequestStatus string

const (
	RequestPending RequestStatus = "pending"
)

// Event is an organizer-created happening users can request to join.
type Event struct {
	ID                uuid.UUID  `json:"id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	VenueID           *uuid.UUID `json:"venue_id,omitempty"`
	OrganizerID       uuid.UUID  `json:"organizer_id"`
	StartsAt          time.Time  `json:"starts_at"`
	TotalParticipants int        `json:"total_participants"`
	ImageURL          string     `json:"image_url"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// EventRequest is a pending join request for an event, one row per
// (event, user) pair while pending.
type EventRequest struct {
	ID        uuid.UUID     `json:"id"`
	EventID   uuid.UUID     `json:"event_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Comment   string        `json:"comment"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// EventRequestDetail is an EventRequest joined with the requester's profile.
// Missing profile fields fall back to placeholders rather than failing.
type EventRequestDetail struct {
	EventRequest
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	ImageURL string `json:"image_url"`
}

// Attendee is a confirmed event participant.
type Attendee struct {
	UserID   uuid.UUID `json:"user_id"`
	FullName string    `json:"full_name"`
	ImageURL string    `json:"image_url"`
	JoinedAt time.Time `json:"joined_at"`
}
