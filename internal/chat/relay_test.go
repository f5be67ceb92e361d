package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
)

func newTestClient(userID uuid.UUID) *Client {
	return &Client{ID: uuid.NewString(), UserID: userID, send: make(chan WSMessage, 4)}
}

func TestRelayDeliversToAllUserConnections(t *testing.T) {
	relay := NewRelay(zap.NewNop(), nil, nil)
	userID := uuid.New()
	a, b := newTestClient(userID), newTestClient(userID)
	relay.Register(a)
	relay.Register(b)

	relay.SendToUser(userID, EventChatMessage, map[string]string{"body": "hi"})

	for _, cl := range []*Client{a, b} {
		select {
		case msg := <-cl.send:
			assert.Equal(t, EventChatMessage, msg.Event)
		default:
			t.Fatal("expected a delivered message")
		}
	}
}

func TestRelayUnregisterStopsDelivery(t *testing.T) {
	relay := NewRelay(zap.NewNop(), nil, nil)
	userID := uuid.New()
	cl := newTestClient(userID)
	relay.Register(cl)
	require.True(t, relay.Online(userID))

	relay.Unregister(cl)
	assert.False(t, relay.Online(userID))

	relay.SendToUser(userID, EventChatMessage, map[string]string{"body": "hi"})
	select {
	case <-cl.send:
		t.Fatal("unregistered client should not receive messages")
	default:
	}
}

func TestRelayConcurrentDeliverAndUnregister(t *testing.T) {
	relay := NewRelay(zap.NewNop(), nil, nil)
	userID := uuid.New()
	clients := make([]*Client, 16)
	for i := range clients {
		clients[i] = newTestClient(userID)
		relay.Register(clients[i])
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			relay.DeliverToUser(userID, EventChatMessage, map[string]string{"body": "hi"})
		}
	}()
	for _, cl := range clients {
		relay.Unregister(cl)
	}
	<-done

	assert.False(t, relay.Online(userID))
}

func TestRelayDropsWhenBufferFull(t *testing.T) {
	relay := NewRelay(zap.NewNop(), nil, nil)
	userID := uuid.New()
	cl := &Client{ID: uuid.NewString(), UserID: userID, send: make(chan WSMessage, 1)}
	relay.Register(cl)

	relay.SendToUser(userID, EventChatMessage, map[string]string{"body": "first"})
	relay.SendToUser(userID, EventChatMessage, map[string]string{"body": "second"})

	assert.Len(t, cl.send, 1)
}

// fakePubSub routes published events straight back to subscribers, standing
// in for Redis.
type fakePubSub struct {
	userHandlers map[uuid.UUID]func(event string, payload []byte)
	broadcast    func(event string, payload []byte)
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{userHandlers: map[uuid.UUID]func(string, []byte){}}
}

func (f *fakePubSub) PublishToUser(userID uuid.UUID, event string, payload []byte) error {
	if h, ok := f.userHandlers[userID]; ok {
		h(event, payload)
	}
	return nil
}

func (f *fakePubSub) PublishBroadcast(event string, payload []byte) error {
	if f.broadcast != nil {
		f.broadcast(event, payload)
	}
	return nil
}

func (f *fakePubSub) SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (func(), error) {
	f.userHandlers[userID] = handler
	return func() { delete(f.userHandlers, userID) }, nil
}

func (f *fakePubSub) SubscribeBroadcast(handler func(event string, payload []byte)) (func(), error) {
	f.broadcast = handler
	return func() { f.broadcast = nil }, nil
}

func TestRelayRoutesThroughPubSub(t *testing.T) {
	ps := newFakePubSub()
	relay := NewRelay(zap.NewNop(), ps, ps)
	relay.Start()
	defer relay.Stop()

	userID, otherID := uuid.New(), uuid.New()
	cl, other := newTestClient(userID), newTestClient(otherID)
	relay.Register(cl)
	relay.Register(other)

	relay.SendToUser(userID, EventChatMessage, map[string]string{"body": "hi"})
	require.Len(t, cl.send, 1)
	assert.Empty(t, other.send)

	relay.Broadcast(EventCarouselAd, map[string]string{"title": "sale"})
	assert.Len(t, cl.send, 2)
	assert.Len(t, other.send, 1)
}

type fakeMessageStore struct {
	messages []*models.Message
}

func (f *fakeMessageStore) Create(_ context.Context, m *models.Message) error {
	m.ID = uuid.New()
	f.messages = append(f.messages, m)
	return nil
}

func (f *fakeMessageStore) Conversation(_ context.Context, a, b uuid.UUID, _ int) ([]models.Message, error) {
	var out []models.Message
	for _, m := range f.messages {
		if (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMessageStore) Conversations(_ context.Context, _ uuid.UUID) ([]models.Conversation, error) {
	return nil, nil
}

type recordingDeliverer struct {
	users  []uuid.UUID
	events []string
}

func (r *recordingDeliverer) SendToUser(userID uuid.UUID, event string, _ interface{}) {
	r.users = append(r.users, userID)
	r.events = append(r.events, event)
}

func TestSendPersistsThenRelays(t *testing.T) {
	store := &fakeMessageStore{}
	deliverer := &recordingDeliverer{}
	svc := NewService(store, deliverer, zap.NewNop())

	sender, recipient := uuid.New(), uuid.New()
	m, err := svc.Send(context.Background(), sender, recipient, "see you there")
	require.NoError(t, err)
	require.Len(t, store.messages, 1)
	assert.Equal(t, "see you there", m.Body)

	// recipient first, then sender's other devices
	assert.Equal(t, []uuid.UUID{recipient, sender}, deliverer.users)
	assert.Equal(t, []string{EventChatMessage, EventChatMessage}, deliverer.events)
}

func TestSendToSelfRejected(t *testing.T) {
	svc := NewService(&fakeMessageStore{}, nil, zap.NewNop())
	me := uuid.New()
	_, err := svc.Send(context.Background(), me, me, "hello me")
	assert.ErrorIs(t, err, ErrSelfMessage)
}

func TestWSMessageEnvelope(t *testing.T) {
	msg := wsMessage(EventChatMessage, map[string]string{"body": "hi"})
	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"chat_message","data":{"body":"hi"}}`, string(raw))
}
