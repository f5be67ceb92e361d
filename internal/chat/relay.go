package chat

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Publisher publishes events to Redis so every instance can deliver them.
type Publisher interface {
	PublishToUser(userID uuid.UUID, event string, payload []byte) error
	PublishBroadcast(event string, payload []byte) error
}

// Subscriber subscribes to user channels and the broadcast channel.
type Subscriber interface {
	SubscribeUser(userID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
	SubscribeBroadcast(handler func(event string, payload []byte)) (cancel func(), err error)
}

// Relay maintains user_id -> set of connections and delivers events.
// Uses Redis pub/sub for horizontal scaling: delivery goes through Redis so
// each instance broadcasts once to its own local clients. Delivery is best
// effort: offline users simply miss the event, and a full client buffer
// drops it.
type Relay struct {
	// userID -> map[clientID]*Client
	users  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per user
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber

	cancelBroadcast func()
}

// NewRelay creates a user-keyed delivery relay.
func NewRelay(logger *zap.Logger, pub Publisher, sub Subscriber) *Relay {
	return &Relay{
		users:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Start subscribes to the broadcast channel. Safe to skip when running
// without Redis.
func (r *Relay) Start() {
	if r.sub == nil {
		return
	}
	cancel, err := r.sub.SubscribeBroadcast(func(event string, payload []byte) {
		r.deliverAll(event, payload)
	})
	if err != nil {
		r.logger.Warn("broadcast subscribe failed", zap.Error(err))
		return
	}
	r.cancelBroadcast = cancel
}

// Stop cancels the broadcast subscription.
func (r *Relay) Stop() {
	if r.cancelBroadcast != nil {
		r.cancelBroadcast()
	}
}

// Register adds a client. Starts the user's Redis subscription on first
// connection.
func (r *Relay) Register(c *Client) {
	r.mu.Lock()
	if r.users[c.UserID] == nil {
		r.users[c.UserID] = make(map[string]*Client)
		if r.sub != nil {
			cancel, err := r.sub.SubscribeUser(c.UserID, func(event string, payload []byte) {
				r.DeliverToUser(c.UserID, event, json.RawMessage(payload))
			})
			if err == nil {
				r.subs[c.UserID] = cancel
			}
		}
	}
	r.users[c.UserID][c.ID] = c
	r.mu.Unlock()
	r.logger.Debug("client connected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Unregister removes a client. Cancels the Redis subscription when the
// user's last connection closes.
func (r *Relay) Unregister(c *Client) {
	r.mu.Lock()
	if m, ok := r.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(r.users, c.UserID)
			if cancel, ok := r.subs[c.UserID]; ok {
				cancel()
				delete(r.subs, c.UserID)
			}
		}
	}
	r.mu.Unlock()
	r.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// DeliverToUser sends an event to the user's local connections only.
func (r *Relay) DeliverToUser(userID uuid.UUID, event string, payload interface{}) {
	msg := wsMessage(event, payload)

	r.mu.RLock()
	clients := make([]*Client, 0, len(r.users[userID]))
	for _, c := range r.users[userID] {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, drop
		}
	}
}

// SendToUser routes an event through Redis so the Redis subscriber performs
// the delivery once per instance. Falls back to local delivery when running
// without Redis.
func (r *Relay) SendToUser(userID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if r.pub != nil {
		_ = r.pub.PublishToUser(userID, event, data)
		return
	}
	r.DeliverToUser(userID, event, json.RawMessage(data))
}

// Broadcast routes an event to every connected client on every instance.
func (r *Relay) Broadcast(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if r.pub != nil {
		_ = r.pub.PublishBroadcast(event, data)
		return
	}
	r.deliverAll(event, json.RawMessage(data))
}

func (r *Relay) deliverAll(event string, payload interface{}) {
	msg := wsMessage(event, payload)

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, clients := range r.users {
		for _, c := range clients {
			select {
			case c.send <- msg:
			default:
			}
		}
	}
}

// Online reports whether the user has at least one local connection.
func (r *Relay) Online(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users[userID]) > 0
}

func wsMessage(event string, payload interface{}) WSMessage {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	return WSMessage{Event: event, Data: data}
}
