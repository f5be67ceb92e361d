package models

import (
	"time"

	"github.com/google/uuid"
)

// Venue is a discoverable location events can be hosted at.
type Venue struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Address     string     `json:"address"`
	City        string     `json:"city"`
	Capacity    int        `json:"capacity"`
	ImageURL    string     `json:"image_url"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
