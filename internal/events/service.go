package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
)

// Workflow errors. Handlers map these to HTTP statuses.
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrRequestAlreadySent = errors.New("Request already sent")
	ErrRequestNotFound    = errors.New("request not found")
	ErrEventFull          = errors.New("event is full")
	ErrEventLimitReached  = errors.New("monthly event limit reached")
	ErrNotOrganizer       = errors.New("only the organizer may do this")
)

// Store is the persistence surface the workflow needs.
type Store interface {
	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListEvents(ctx context.Context, upcomingOnly bool) ([]models.Event, error)
	ListEventsForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error
	CountCreatedInMonth(ctx context.Context, organizerID uuid.UUID, at time.Time) (int, error)
	EventLimit(ctx context.Context, userID uuid.UUID) (*int, error)

	CreateRequest(ctx context.Context, req *models.EventRequest) error
	CancelRequest(ctx context.Context, eventID, userID uuid.UUID) error
	AcceptRequest(ctx context.Context, eventID, userID, actorID uuid.UUID) error
	RejectRequest(ctx context.Context, requestID, eventID, actorID uuid.UUID) (uuid.UUID, error)
	ListPendingRequests(ctx context.Context, eventID uuid.UUID) ([]models.EventRequestDetail, error)
	ListAttendees(ctx context.Context, eventID uuid.UUID) ([]models.Attendee, error)
}

// SubscriptionChecker reports whether a user has an active paid plan.
type SubscriptionChecker interface {
	HasActiveSubscription(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Notifier queues a notification for a user. Delivery is best-effort and
// must not fail the workflow.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, subject, body string) error
}

// Service implements the event join-request workflow on top of a Store.
type Service struct {
	store       Store
	subs        SubscriptionChecker
	notifier    Notifier
	createLimit int
	logger      *zap.Logger
}

// NewService creates the event workflow service. subs and notifier may be nil.
func NewService(store Store, subs SubscriptionChecker, notifier Notifier, createLimit int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, subs: subs, notifier: notifier, createLimit: createLimit, logger: logger}
}

// Create creates an event, enforcing the monthly creation limit for users
// without an active subscription. A per-user event_limit overrides the
// configured default.
func (s *Service) Create(ctx context.Context, e *models.Event) error {
	limit := s.createLimit
	override, err := s.store.EventLimit(ctx, e.OrganizerID)
	if err != nil {
		return fmt.Errorf("read event limit: %w", err)
	}
	if override != nil {
		limit = *override
	}
	if limit > 0 {
		subscribed := false
		if s.subs != nil {
			subscribed, err = s.subs.HasActiveSubscription(ctx, e.OrganizerID)
			if err != nil {
				return fmt.Errorf("check subscription: %w", err)
			}
		}
		if !subscribed {
			n, err := s.store.CountCreatedInMonth(ctx, e.OrganizerID, time.Now())
			if err != nil {
				return fmt.Errorf("count events: %w", err)
			}
			if n >= limit {
				return ErrEventLimitReached
			}
		}
	}
	return s.store.CreateEvent(ctx, e)
}

// Get returns an event or ErrEventNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrEventNotFound
	}
	return e, nil
}

// Request files a join request for the calling user.
func (s *Service) Request(ctx context.Context, eventID, userID uuid.UUID, comment string) (*models.EventRequest, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	req := &models.EventRequest{EventID: eventID, UserID: userID, Comment: comment}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Cancel withdraws the user's request on the event. Idempotent: cancelling
// when no request exists succeeds, and the pair may request again afterwards.
func (s *Service) Cancel(ctx context.Context, eventID, userID uuid.UUID) error {
	if _, err := s.Get(ctx, eventID); err != nil {
		return err
	}
	return s.store.CancelRequest(ctx, eventID, userID)
}

// Accept resolves a pending request into attendance. Only the organizer may
// accept; the store commits attendee insert, request delete, and audit
// atomically.
func (s *Service) Accept(ctx context.Context, eventID, userID, actorID uuid.UUID) (*models.Event, error) {
	e, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.OrganizerID != actorID {
		return nil, ErrNotOrganizer
	}
	if err := s.store.AcceptRequest(ctx, eventID, userID, actorID); err != nil {
		return nil, err
	}
	s.notify(ctx, userID, models.NotificationEventAccepted,
		"You're in: "+e.Title,
		fmt.Sprintf("Your request to join %q was accepted.", e.Title))
	return e, nil
}

// Reject resolves a pending request negatively, looked up by the request's
// own id.
func (s *Service) Reject(ctx context.Context, requestID, eventID, actorID uuid.UUID) error {
	e, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if e.OrganizerID != actorID {
		return ErrNotOrganizer
	}
	userID, err := s.store.RejectRequest(ctx, requestID, eventID, actorID)
	if err != nil {
		return err
	}
	s.notify(ctx, userID, models.NotificationEventRejected,
		"Request declined: "+e.Title,
		fmt.Sprintf("Your request to join %q was declined by the organizer.", e.Title))
	return nil
}

// ListRequests returns the event's pending requests with requester profiles.
func (s *Service) ListRequests(ctx context.Context, eventID uuid.UUID) ([]models.EventRequestDetail, error) {
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListPendingRequests(ctx, eventID)
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, kind, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, kind, subject, body); err != nil {
		s.logger.Warn("notify failed", zap.Error(err), zap.String("kind", kind), zap.String("user_id", userID.String()))
	}
}
