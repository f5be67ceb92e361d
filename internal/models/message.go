package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a persisted direct message between two users.
type Message struct {
	ID          uuid.UUID `json:"id"`
	SenderID    uuid.UUID `json:"sender_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"created_at"`
}

// Conversation summarizes the latest exchange with a partner.
type Conversation struct {
	PartnerID    uuid.UUID `json:"partner_id"`
	PartnerName  string    `json:"partner_name"`
	PartnerImage string    `json:"partner_image"`
	LastBody     string    `json:"last_body"`
	LastAt       time.Time `json:"last_at"`
}
