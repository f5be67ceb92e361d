package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmate/backend/internal/models"
)

// fakeStore is an in-memory Store honoring the same contract as the
// Postgres repository: one pending request per (event, user), resolution
// removes the row, accept is all-or-nothing.
type fakeStore struct {
	events    map[uuid.UUID]*models.Event
	requests  map[uuid.UUID]*models.EventRequest // by request id
	attendees map[uuid.UUID][]uuid.UUID          // event id -> user ids
	limits    map[uuid.UUID]*int                 // per-user event_limit override
	audit     []models.AuditEntry
	failNext  error // injected failure for the next mutating call
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:    make(map[uuid.UUID]*models.Event),
		requests:  make(map[uuid.UUID]*models.EventRequest),
		attendees: make(map[uuid.UUID][]uuid.UUID),
		limits:    make(map[uuid.UUID]*int),
	}
}

func (f *fakeStore) addEvent(capacity int) *models.Event {
	e := &models.Event{
		ID:                uuid.New(),
		Title:             "test event",
		OrganizerID:       uuid.New(),
		StartsAt:          time.Now().Add(24 * time.Hour),
		TotalParticipants: capacity,
	}
	f.events[e.ID] = e
	return e
}

func (f *fakeStore) pendingFor(eventID, userID uuid.UUID) *models.EventRequest {
	for _, r := range f.requests {
		if r.EventID == eventID && r.UserID == userID {
			return r
		}
	}
	return nil
}

func (f *fakeStore) CreateEvent(_ context.Context, e *models.Event) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	f.events[e.ID] = e
	return nil
}

func (f *fakeStore) GetEvent(_ context.Context, id uuid.UUID) (*models.Event, error) {
	return f.events[id], nil
}

func (f *fakeStore) ListEvents(_ context.Context, _ bool) ([]models.Event, error) { return nil, nil }
func (f *fakeStore) ListEventsForUser(_ context.Context, userID uuid.UUID) ([]models.Event, error) {
	var out []models.Event
	for eventID, users := range f.attendees {
		for _, u := range users {
			if u == userID {
				out = append(out, *f.events[eventID])
			}
		}
	}
	return out, nil
}
func (f *fakeStore) UpdateEvent(_ context.Context, _ *models.Event) error { return nil }
func (f *fakeStore) DeleteEvent(_ context.Context, id uuid.UUID) error {
	delete(f.events, id)
	return nil
}
func (f *fakeStore) CountCreatedInMonth(_ context.Context, organizerID uuid.UUID, _ time.Time) (int, error) {
	n := 0
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) EventLimit(_ context.Context, userID uuid.UUID) (*int, error) {
	return f.limits[userID], nil
}

func (f *fakeStore) CreateRequest(_ context.Context, req *models.EventRequest) error {
	if f.pendingFor(req.EventID, req.UserID) != nil {
		return ErrRequestAlreadySent
	}
	req.ID = uuid.New()
	req.Status = models.RequestPending
	req.CreatedAt = time.Now()
	f.requests[req.ID] = req
	return nil
}

func (f *fakeStore) CancelRequest(_ context.Context, eventID, userID uuid.UUID) error {
	if r := f.pendingFor(eventID, userID); r != nil {
		delete(f.requests, r.ID)
		f.audit = append(f.audit, models.AuditEntry{
			Scope: models.AuditScopeEvent, ParentID: eventID, RequestID: r.ID,
			UserID: userID, Outcome: models.OutcomeCancelled,
		})
	}
	return nil
}

func (f *fakeStore) AcceptRequest(_ context.Context, eventID, userID, actorID uuid.UUID) error {
	r := f.pendingFor(eventID, userID)
	if r == nil {
		return ErrRequestNotFound
	}
	e := f.events[eventID]
	if e.TotalParticipants > 0 && len(f.attendees[eventID]) >= e.TotalParticipants {
		return ErrEventFull
	}
	if f.failNext != nil {
		// simulated mid-transaction failure: nothing is applied
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.attendees[eventID] = append(f.attendees[eventID], userID)
	delete(f.requests, r.ID)
	f.audit = append(f.audit, models.AuditEntry{
		Scope: models.AuditScopeEvent, ParentID: eventID, RequestID: r.ID,
		UserID: userID, ActorID: &actorID, Outcome: models.OutcomeAccepted,
	})
	return nil
}

func (f *fakeStore) RejectRequest(_ context.Context, requestID, eventID, actorID uuid.UUID) (uuid.UUID, error) {
	r, ok := f.requests[requestID]
	if !ok || r.EventID != eventID {
		return uuid.Nil, ErrRequestNotFound
	}
	delete(f.requests, requestID)
	f.audit = append(f.audit, models.AuditEntry{
		Scope: models.AuditScopeEvent, ParentID: eventID, RequestID: requestID,
		UserID: r.UserID, ActorID: &actorID, Outcome: models.OutcomeRejected,
	})
	return r.UserID, nil
}

func (f *fakeStore) ListPendingRequests(_ context.Context, eventID uuid.UUID) ([]models.EventRequestDetail, error) {
	var out []models.EventRequestDetail
	for _, r := range f.requests {
		if r.EventID == eventID {
			out = append(out, models.EventRequestDetail{EventRequest: *r, FullName: "Unknown"})
		}
	}
	return out, nil
}

func (f *fakeStore) ListAttendees(_ context.Context, eventID uuid.UUID) ([]models.Attendee, error) {
	var out []models.Attendee
	for _, u := range f.attendees[eventID] {
		out = append(out, models.Attendee{UserID: u})
	}
	return out, nil
}

type fakeNotifier struct {
	sent []string // kinds
}

func (n *fakeNotifier) Notify(_ context.Context, _ uuid.UUID, kind, _, _ string) error {
	n.sent = append(n.sent, kind)
	return nil
}

func newTestService(store *fakeStore) (*Service, *fakeNotifier) {
	n := &fakeNotifier{}
	return NewService(store, nil, n, 0, nil), n
}

func TestRequestTwiceWhilePendingFails(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(10)
	user := uuid.New()
	svc, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.Request(ctx, e.ID, user, "hi")
	require.NoError(t, err)

	_, err = svc.Request(ctx, e.ID, user, "hi again")
	assert.ErrorIs(t, err, ErrRequestAlreadySent)

	reqs, err := svc.ListRequests(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
}

func TestCancelThenRequestSucceeds(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(10)
	user := uuid.New()
	svc, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.Request(ctx, e.ID, user, "")
	require.NoError(t, err)
	require.NoError(t, svc.Cancel(ctx, e.ID, user))

	_, err = svc.Request(ctx, e.ID, user, "")
	assert.NoError(t, err, "cancel must fully clear prior state for the pair")
}

func TestCancelIsIdempotent(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(10)
	svc, _ := newTestService(store)

	assert.NoError(t, svc.Cancel(context.Background(), e.ID, uuid.New()))
}

func TestRequestUnknownEvent(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)

	_, err := svc.Request(context.Background(), uuid.New(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestAcceptMovesRequesterToAttendees(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(2)
	user := uuid.New()
	svc, notifier := newTestService(store)
	ctx := context.Background()

	_, err := svc.Request(ctx, e.ID, user, "hi")
	require.NoError(t, err)

	got, err := svc.Accept(ctx, e.ID, user, e.OrganizerID)
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	attendees, _ := store.ListAttendees(ctx, e.ID)
	require.Len(t, attendees, 1)
	assert.Equal(t, user, attendees[0].UserID)

	mine, _ := store.ListEventsForUser(ctx, user)
	require.Len(t, mine, 1, "attended events must reflect the accept")

	reqs, _ := svc.ListRequests(ctx, e.ID)
	assert.Empty(t, reqs, "resolved request must be removed")

	assert.Equal(t, []string{models.NotificationEventAccepted}, notifier.sent)
}

func TestAcceptRollsBackOnFailure(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(2)
	user := uuid.New()
	svc, notifier := newTestService(store)
	ctx := context.Background()

	_, err := svc.Request(ctx, e.ID, user, "")
	require.NoError(t, err)

	store.failNext = errors.New("db down")
	_, err = svc.Accept(ctx, e.ID, user, e.OrganizerID)
	require.Error(t, err)

	attendees, _ := store.ListAttendees(ctx, e.ID)
	assert.Empty(t, attendees, "no partial attendee state after rollback")
	mine, _ := store.ListEventsForUser(ctx, user)
	assert.Empty(t, mine, "no partial attended-events state after rollback")
	reqs, _ := svc.ListRequests(ctx, e.ID)
	assert.Len(t, reqs, 1, "request must survive the failed accept")
	assert.Empty(t, notifier.sent)
}

func TestAcceptRequiresOrganizer(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(2)
	user := uuid.New()
	svc, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.Request(ctx, e.ID, user, "")
	require.NoError(t, err)

	_, err = svc.Accept(ctx, e.ID, user, uuid.New())
	assert.ErrorIs(t, err, ErrNotOrganizer)
}

func TestAcceptWithoutRequest(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(2)
	svc, _ := newTestService(store)

	_, err := svc.Accept(context.Background(), e.ID, uuid.New(), e.OrganizerID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestAcceptEnforcesCapacity(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(1)
	first, second := uuid.New(), uuid.New()
	svc, _ := newTestService(store)
	ctx := context.Background()

	_, err := svc.Request(ctx, e.ID, first, "")
	require.NoError(t, err)
	_, err = svc.Accept(ctx, e.ID, first, e.OrganizerID)
	require.NoError(t, err)

	_, err = svc.Request(ctx, e.ID, second, "")
	require.NoError(t, err)
	_, err = svc.Accept(ctx, e.ID, second, e.OrganizerID)
	assert.ErrorIs(t, err, ErrEventFull)
}

func TestRejectByRequestID(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(2)
	a, b := uuid.New(), uuid.New()
	svc, notifier := newTestService(store)
	ctx := context.Background()

	// User A requests with a comment, organizer accepts.
	_, err := svc.Request(ctx, e.ID, a, "hi")
	require.NoError(t, err)
	_, err = svc.Accept(ctx, e.ID, a, e.OrganizerID)
	require.NoError(t, err)

	// User B requests, organizer rejects by request id.
	reqB, err := svc.Request(ctx, e.ID, b, "")
	require.NoError(t, err)
	require.NoError(t, svc.Reject(ctx, reqB.ID, e.ID, e.OrganizerID))

	attendees, _ := store.ListAttendees(ctx, e.ID)
	require.Len(t, attendees, 1)
	assert.Equal(t, a, attendees[0].UserID)

	reqs, _ := svc.ListRequests(ctx, e.ID)
	assert.Empty(t, reqs, "rejected request is removed; the outcome lives in the audit log")

	var outcomes []string
	for _, entry := range store.audit {
		outcomes = append(outcomes, entry.Outcome)
	}
	assert.Equal(t, []string{models.OutcomeAccepted, models.OutcomeRejected}, outcomes)
	assert.Equal(t, []string{models.NotificationEventAccepted, models.NotificationEventRejected}, notifier.sent)
}

func TestRejectUnknownRequest(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(2)
	svc, _ := newTestService(store)

	err := svc.Reject(context.Background(), uuid.New(), e.ID, e.OrganizerID)
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

type stubSubs struct{ active bool }

func (s stubSubs) HasActiveSubscription(_ context.Context, _ uuid.UUID) (bool, error) {
	return s.active, nil
}

func TestCreateEnforcesMonthlyLimit(t *testing.T) {
	store := newFakeStore()
	organizer := uuid.New()
	svc := NewService(store, stubSubs{active: false}, nil, 2, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		e := &models.Event{Title: "e", OrganizerID: organizer, StartsAt: time.Now()}
		require.NoError(t, svc.Create(ctx, e))
	}
	err := svc.Create(ctx, &models.Event{Title: "over", OrganizerID: organizer, StartsAt: time.Now()})
	assert.ErrorIs(t, err, ErrEventLimitReached)
}

func TestCreatePerUserLimitOverridesDefault(t *testing.T) {
	store := newFakeStore()
	organizer := uuid.New()
	five := 5
	store.limits[organizer] = &five
	svc := NewService(store, stubSubs{active: false}, nil, 2, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		e := &models.Event{Title: "e", OrganizerID: organizer, StartsAt: time.Now()}
		require.NoError(t, svc.Create(ctx, e))
	}
	err := svc.Create(ctx, &models.Event{Title: "over", OrganizerID: organizer, StartsAt: time.Now()})
	assert.ErrorIs(t, err, ErrEventLimitReached)
}

func TestCreateLimitLiftedBySubscription(t *testing.T) {
	store := newFakeStore()
	organizer := uuid.New()
	svc := NewService(store, stubSubs{active: true}, nil, 1, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		e := &models.Event{Title: "e", OrganizerID: organizer, StartsAt: time.Now()}
		require.NoError(t, svc.Create(ctx, e))
	}
}
