package ads

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/storage"
)

// Broadcaster pushes an event to every connected client.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// AdLister supplies the active ads for rotation.
type AdLister interface {
	ListActive(ctx context.Context) ([]models.Ad, error)
}

// Rotator cycles through active ads on a ticker and broadcasts carousel_ad
// to all connected clients. One rotator serves the whole platform; the
// carousel is global, not per-event.
type Rotator struct {
	repo     AdLister
	relay    Broadcaster
	s3       *storage.S3
	logger   *zap.Logger
	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	reloadCh chan struct{}
}

// NewRotator creates the carousel rotator.
func NewRotator(repo AdLister, relay Broadcaster, s3 *storage.S3, intervalSec int, logger *zap.Logger) *Rotator {
	if intervalSec <= 0 {
		intervalSec = 30
	}
	return &Rotator{
		repo:     repo,
		relay:    relay,
		s3:       s3,
		logger:   logger,
		interval: time.Duration(intervalSec) * time.Second,
		reloadCh: make(chan struct{}, 1),
	}
}

// Start begins the rotation loop. Call Stop() to release resources.
func (r *Rotator) Start() {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	done := r.done
	r.mu.Unlock()

	go r.run(ctx, done)
	r.logger.Info("ad rotator started", zap.Duration("interval", r.interval))
}

// Stop stops the rotation and releases resources.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.cancel = nil
	<-r.done
	r.logger.Info("ad rotator stopped")
}

// Reload signals the rotator to reload the ad list on next tick (e.g. when
// an ad is added or toggled).
func (r *Rotator) Reload() {
	select {
	case r.reloadCh <- struct{}{}:
	default:
	}
}

func (r *Rotator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var (
		ads   []adItem
		index int
	)
	load := func() {
		list, err := r.repo.ListActive(ctx)
		if err != nil {
			r.logger.Warn("ad rotator load failed", zap.Error(err))
			return
		}
		ads = ads[:0]
		for _, a := range list {
			ads = append(ads, adItem{id: a.ID, title: a.Title, imageKey: a.ImageKey, targetURL: a.TargetURL})
		}
		index = 0
	}
	load()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.reloadCh:
			load()
			continue
		case <-ticker.C:
			if len(ads) == 0 {
				load()
				continue
			}
			cur := ads[index%len(ads)]
			index++
			imageURL := ""
			if r.s3 != nil && cur.imageKey != "" {
				imageURL = r.s3.PublicObjectURL(cur.imageKey)
			}
			if r.relay != nil {
				r.relay.Broadcast("carousel_ad", map[string]interface{}{
					"ad_id": cur.id, "title": cur.title, "image_url": imageURL, "target_url": cur.targetURL,
				})
			}
		}
	}
}

type adItem struct {
	id        uuid.UUID
	title     string
	imageKey  string
	targetURL string
}
