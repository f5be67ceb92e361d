package communities

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
)

type memberKey struct {
	community uuid.UUID
	user      uuid.UUID
}

type fakeStore struct {
	communities map[uuid.UUID]*models.Community
	members     map[memberKey]string
	questions   map[uuid.UUID][]models.CommunityQuestion
	requests    map[uuid.UUID]*models.CommunityJoinRequest
	audit       []models.AuditEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		communities: map[uuid.UUID]*models.Community{},
		members:     map[memberKey]string{},
		questions:   map[uuid.UUID][]models.CommunityQuestion{},
		requests:    map[uuid.UUID]*models.CommunityJoinRequest{},
	}
}

func (f *fakeStore) Create(_ context.Context, cm *models.Community) error {
	cm.ID = uuid.New()
	cm.CreatedAt = time.Now()
	f.communities[cm.ID] = cm
	f.members[memberKey{cm.ID, cm.CreatedBy}] = models.CommunityRoleOwner
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*models.Community, error) {
	return f.communities[id], nil
}

func (f *fakeStore) List(_ context.Context) ([]models.Community, error) {
	var out []models.Community
	for _, cm := range f.communities {
		out = append(out, *cm)
	}
	return out, nil
}

func (f *fakeStore) IsMember(_ context.Context, communityID, userID uuid.UUID) (bool, error) {
	_, ok := f.members[memberKey{communityID, userID}]
	return ok, nil
}

func (f *fakeStore) AddMember(_ context.Context, communityID, userID uuid.UUID) error {
	key := memberKey{communityID, userID}
	if _, ok := f.members[key]; !ok {
		f.members[key] = models.CommunityRoleMember
	}
	return nil
}

func (f *fakeStore) RemoveMember(_ context.Context, communityID, userID uuid.UUID) error {
	key := memberKey{communityID, userID}
	if f.members[key] != models.CommunityRoleOwner {
		delete(f.members, key)
	}
	return nil
}

func (f *fakeStore) ListMembers(_ context.Context, communityID uuid.UUID) ([]models.CommunityMember, error) {
	var out []models.CommunityMember
	for key, role := range f.members {
		if key.community == communityID {
			out = append(out, models.CommunityMember{UserID: key.user, Role: role})
		}
	}
	return out, nil
}

func (f *fakeStore) SetQuestions(_ context.Context, communityID uuid.UUID, texts []string) ([]models.CommunityQuestion, error) {
	var out []models.CommunityQuestion
	for i, text := range texts {
		out = append(out, models.CommunityQuestion{ID: uuid.New(), CommunityID: communityID, Text: text, Position: i})
	}
	f.questions[communityID] = out
	return out, nil
}

func (f *fakeStore) ListQuestions(_ context.Context, communityID uuid.UUID) ([]models.CommunityQuestion, error) {
	return f.questions[communityID], nil
}

func (f *fakeStore) CreateJoinRequest(_ context.Context, req *models.CommunityJoinRequest) error {
	for _, existing := range f.requests {
		if existing.CommunityID == req.CommunityID && existing.UserID == req.UserID {
			return ErrRequestAlreadySent
		}
	}
	req.ID = uuid.New()
	req.Status = models.RequestPending
	req.CreatedAt = time.Now()
	f.requests[req.ID] = req
	return nil
}

func (f *fakeStore) AcceptJoinRequest(_ context.Context, communityID, requestID, actorID uuid.UUID) (uuid.UUID, error) {
	req, ok := f.requests[requestID]
	if !ok || req.CommunityID != communityID {
		return uuid.Nil, ErrRequestNotFound
	}
	delete(f.requests, requestID)
	f.members[memberKey{communityID, req.UserID}] = models.CommunityRoleMember
	f.audit = append(f.audit, models.AuditEntry{
		Scope: models.AuditScopeCommunity, ParentID: communityID, RequestID: requestID,
		UserID: req.UserID, ActorID: &actorID, Outcome: models.OutcomeAccepted,
	})
	return req.UserID, nil
}

func (f *fakeStore) RejectJoinRequest(_ context.Context, communityID, requestID, actorID uuid.UUID) (uuid.UUID, error) {
	req, ok := f.requests[requestID]
	if !ok || req.CommunityID != communityID {
		return uuid.Nil, ErrRequestNotFound
	}
	delete(f.requests, requestID)
	f.audit = append(f.audit, models.AuditEntry{
		Scope: models.AuditScopeCommunity, ParentID: communityID, RequestID: requestID,
		UserID: req.UserID, ActorID: &actorID, Outcome: models.OutcomeRejected,
	})
	return req.UserID, nil
}

func (f *fakeStore) ListPendingRequests(_ context.Context, communityID uuid.UUID) ([]models.CommunityJoinRequest, map[uuid.UUID]models.CommunityJoinRequestDetail, error) {
	var reqs []models.CommunityJoinRequest
	details := make(map[uuid.UUID]models.CommunityJoinRequestDetail)
	for _, req := range f.requests {
		if req.CommunityID != communityID {
			continue
		}
		reqs = append(reqs, *req)
		details[req.ID] = models.CommunityJoinRequestDetail{ID: req.ID, UserID: req.UserID, CreatedAt: req.CreatedAt}
	}
	return reqs, details, nil
}

type fakeNotifier struct {
	kinds []string
	users []uuid.UUID
	err   error
}

func (f *fakeNotifier) Notify(_ context.Context, userID uuid.UUID, kind, _, _ string) error {
	f.kinds = append(f.kinds, kind)
	f.users = append(f.users, userID)
	return f.err
}

func newTestService() (*Service, *fakeStore, *fakeNotifier) {
	store := newFakeStore()
	notifier := &fakeNotifier{}
	return NewService(store, notifier, zap.NewNop()), store, notifier
}

func TestNewServiceDefaultsLogger(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeNotifier{err: context.Canceled}, nil)
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	res, err := svc.Join(context.Background(), cm.ID, user, nil)
	require.NoError(t, err)
	// notify fails and gets logged; a nil logger must not panic here
	require.NoError(t, svc.Accept(context.Background(), cm.ID, res.Request.ID, owner))
}

func seedCommunity(t *testing.T, svc *Service, owner uuid.UUID, private bool) *models.Community {
	t.Helper()
	cm := &models.Community{Name: "chess club", IsPrivate: private, CreatedBy: owner}
	require.NoError(t, svc.Create(context.Background(), cm))
	return cm
}

func TestJoinPublicIsIdempotent(t *testing.T) {
	svc, store, _ := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, false)

	for i := 0; i < 2; i++ {
		res, err := svc.Join(context.Background(), cm.ID, user, nil)
		require.NoError(t, err)
		assert.True(t, res.Joined)
		assert.Nil(t, res.Request)
	}
	member, err := store.IsMember(context.Background(), cm.ID, user)
	require.NoError(t, err)
	assert.True(t, member)
}

func TestJoinPrivateCreatesPendingRequest(t *testing.T) {
	svc, store, _ := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	res, err := svc.Join(context.Background(), cm.ID, user, map[string]string{"q": "a"})
	require.NoError(t, err)
	assert.False(t, res.Joined)
	require.NotNil(t, res.Request)
	assert.Equal(t, models.RequestPending, res.Request.Status)

	member, err := store.IsMember(context.Background(), cm.ID, user)
	require.NoError(t, err)
	assert.False(t, member)
}

func TestJoinPrivateTwiceWhilePendingFails(t *testing.T) {
	svc, _, _ := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	_, err := svc.Join(context.Background(), cm.ID, user, nil)
	require.NoError(t, err)
	_, err = svc.Join(context.Background(), cm.ID, user, nil)
	assert.ErrorIs(t, err, ErrRequestAlreadySent)
}

func TestJoinPrivateWhileMemberFails(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	_, err := svc.Join(context.Background(), cm.ID, owner, nil)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestJoinUnknownCommunity(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Join(context.Background(), uuid.New(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrCommunityNotFound)
}

func TestAcceptAddsMemberAndAudits(t *testing.T) {
	svc, store, notifier := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	res, err := svc.Join(context.Background(), cm.ID, user, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Accept(context.Background(), cm.ID, res.Request.ID, owner))

	member, err := store.IsMember(context.Background(), cm.ID, user)
	require.NoError(t, err)
	assert.True(t, member)
	assert.Empty(t, store.requests)
	require.Len(t, store.audit, 1)
	assert.Equal(t, models.OutcomeAccepted, store.audit[0].Outcome)
	assert.Equal(t, []string{models.NotificationCommunityAccepted}, notifier.kinds)
	assert.Equal(t, []uuid.UUID{user}, notifier.users)
}

func TestAcceptRequiresOwner(t *testing.T) {
	svc, _, _ := newTestService()
	owner, user, outsider := uuid.New(), uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	res, err := svc.Join(context.Background(), cm.ID, user, nil)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Accept(context.Background(), cm.ID, res.Request.ID, outsider), ErrNotOwner)
}

func TestAcceptUnknownRequest(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	assert.ErrorIs(t, svc.Accept(context.Background(), cm.ID, uuid.New(), owner), ErrRequestNotFound)
}

func TestRejectDeletesRequestAndAudits(t *testing.T) {
	svc, store, notifier := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	res, err := svc.Join(context.Background(), cm.ID, user, nil)
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), cm.ID, res.Request.ID, owner))

	member, err := store.IsMember(context.Background(), cm.ID, user)
	require.NoError(t, err)
	assert.False(t, member)
	assert.Empty(t, store.requests)
	require.Len(t, store.audit, 1)
	assert.Equal(t, models.OutcomeRejected, store.audit[0].Outcome)
	assert.Equal(t, []string{models.NotificationCommunityRejected}, notifier.kinds)

	// Rejection clears the pending slot; the user may request again.
	_, err = svc.Join(context.Background(), cm.ID, user, nil)
	assert.NoError(t, err)
}

func TestListRequestsResolvesAnswers(t *testing.T) {
	svc, _, _ := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	questions, err := svc.SetQuestions(context.Background(), cm.ID, owner, []string{"Why join?", "Favorite opening?"})
	require.NoError(t, err)
	require.Len(t, questions, 2)

	answers := map[string]string{
		questions[0].ID.String(): "I love chess",
		uuid.New().String():      "stale answer for a removed question",
	}
	_, err = svc.Join(context.Background(), cm.ID, user, answers)
	require.NoError(t, err)

	list, err := svc.ListRequests(context.Background(), cm.ID, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Answers, 2)
	assert.Equal(t, "Why join?", list[0].Answers[0].Question)
	assert.Equal(t, "I love chess", list[0].Answers[0].Answer)
	assert.Equal(t, "Favorite opening?", list[0].Answers[1].Question)
	assert.Equal(t, models.NoAnswerPlaceholder, list[0].Answers[1].Answer)
}

func TestListRequestsRequiresOwner(t *testing.T) {
	svc, _, _ := newTestService()
	owner, outsider := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	_, err := svc.ListRequests(context.Background(), cm.ID, outsider)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestLeaveDoesNotRemoveOwner(t *testing.T) {
	svc, store, _ := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, false)

	_, err := svc.Join(context.Background(), cm.ID, user, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Leave(context.Background(), cm.ID, user))
	member, err := store.IsMember(context.Background(), cm.ID, user)
	require.NoError(t, err)
	assert.False(t, member)

	require.NoError(t, svc.Leave(context.Background(), cm.ID, owner))
	member, err = store.IsMember(context.Background(), cm.ID, owner)
	require.NoError(t, err)
	assert.True(t, member)
}
