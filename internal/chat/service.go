package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
)

var ErrSelfMessage = errors.New("cannot message yourself")

// MessageStore is the persistence surface the service depends on.
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	Conversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error)
	Conversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error)
}

// Deliverer pushes a realtime event toward a user's open connections.
type Deliverer interface {
	SendToUser(userID uuid.UUID, event string, payload interface{})
}

// Service persists direct messages and relays them to open connections.
// Relay is best effort: persistence is the source of truth and offline
// recipients catch up from history.
type Service struct {
	store  MessageStore
	relay  Deliverer
	logger *zap.Logger
}

func NewService(store MessageStore, relay Deliverer, logger *zap.Logger) *Service {
	return &Service{store: store, relay: relay, logger: logger}
}

// Send persists the message, then pushes it to the recipient's and the
// sender's connections (the latter keeps other devices in sync).
func (s *Service) Send(ctx context.Context, senderID, recipientID uuid.UUID, body string) (*models.Message, error) {
	if senderID == recipientID {
		return nil, ErrSelfMessage
	}
	m := &models.Message{SenderID: senderID, RecipientID: recipientID, Body: body}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}
	if s.relay != nil {
		s.relay.SendToUser(recipientID, EventChatMessage, m)
		s.relay.SendToUser(senderID, EventChatMessage, m)
	}
	return m, nil
}

func (s *Service) Conversation(ctx context.Context, a, b uuid.UUID, limit int) ([]models.Message, error) {
	return s.store.Conversation(ctx, a, b, limit)
}

func (s *Service) Conversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	return s.store.Conversations(ctx, userID)
}
