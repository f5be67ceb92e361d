package ads

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
)

type fakeLister struct {
	mu    sync.Mutex
	ads   []models.Ad
	loads int
}

func (f *fakeLister) ListActive(_ context.Context) ([]models.Ad, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.ads, nil
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeBroadcaster) Broadcast(event string, _ interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func TestRotatorRestart(t *testing.T) {
	lister := &fakeLister{ads: []models.Ad{{Title: "a"}}}
	r := NewRotator(lister, &fakeBroadcaster{}, nil, 1, zap.NewNop())

	for i := 0; i < 3; i++ {
		r.Start()
		r.Stop()
	}

	lister.mu.Lock()
	defer lister.mu.Unlock()
	assert.GreaterOrEqual(t, lister.loads, 3)
}

func TestRotatorStopIdempotent(t *testing.T) {
	r := NewRotator(&fakeLister{}, &fakeBroadcaster{}, nil, 1, zap.NewNop())
	r.Stop() // never started

	r.Start()
	r.Stop()
	r.Stop()
}
