package models

import (
	"time"

	"github.com/google/uuid"
)

// Ad is a carousel advertisement shown on the discovery screen.
type Ad struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	ImageKey  string    `json:"-"`
	ImageURL  string    `json:"image_url,omitempty"` // resolved at read time (presigned or public)
	TargetURL string    `json:"target_url"`
	Active    bool      `json:"active"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
