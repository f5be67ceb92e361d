package communities

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
)

var (
	ErrCommunityNotFound  = errors.New("community not found")
	ErrRequestAlreadySent = errors.New("Request already sent")
	ErrRequestNotFound    = errors.New("request not found")
	ErrAlreadyMember      = errors.New("already a member")
	ErrNotOwner           = errors.New("only the community owner can do this")
)

// Store is the persistence surface the service depends on.
type Store interface {
	Create(ctx context.Context, cm *models.Community) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error)
	List(ctx context.Context) ([]models.Community, error)

	IsMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error)
	AddMember(ctx context.Context, communityID, userID uuid.UUID) error
	RemoveMember(ctx context.Context, communityID, userID uuid.UUID) error
	ListMembers(ctx context.Context, communityID uuid.UUID) ([]models.CommunityMember, error)

	SetQuestions(ctx context.Context, communityID uuid.UUID, texts []string) ([]models.CommunityQuestion, error)
	ListQuestions(ctx context.Context, communityID uuid.UUID) ([]models.CommunityQuestion, error)

	CreateJoinRequest(ctx context.Context, req *models.CommunityJoinRequest) error
	AcceptJoinRequest(ctx context.Context, communityID, requestID, actorID uuid.UUID) (uuid.UUID, error)
	RejectJoinRequest(ctx context.Context, communityID, requestID, actorID uuid.UUID) (uuid.UUID, error)
	ListPendingRequests(ctx context.Context, communityID uuid.UUID) ([]models.CommunityJoinRequest, map[uuid.UUID]models.CommunityJoinRequestDetail, error)
}

// Notifier delivers membership decisions to requesters.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, subject, body string) error
}

// JoinResult tells the caller whether joining produced membership or a
// pending request.
type JoinResult struct {
	Joined  bool                         `json:"joined"`
	Request *models.CommunityJoinRequest `json:"request,omitempty"`
}

// Service owns the community join workflow.
type Service struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates the community workflow service. notifier and logger
// may be nil.
func NewService(store Store, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, logger: logger}
}

func (s *Service) Create(ctx context.Context, cm *models.Community) error {
	return s.store.Create(ctx, cm)
}

func (s *Service) List(ctx context.Context) ([]models.Community, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Community, error) {
	cm, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cm == nil {
		return nil, ErrCommunityNotFound
	}
	return cm, nil
}

// Join is the single entry point for both community kinds. Public
// communities admit immediately and idempotently; private communities open a
// pending request carrying the screening answers.
func (s *Service) Join(ctx context.Context, communityID, userID uuid.UUID, answers map[string]string) (*JoinResult, error) {
	cm, err := s.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}

	member, err := s.store.IsMember(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}

	if !cm.IsPrivate {
		if member {
			return &JoinResult{Joined: true}, nil
		}
		if err := s.store.AddMember(ctx, communityID, userID); err != nil {
			return nil, err
		}
		return &JoinResult{Joined: true}, nil
	}

	if member {
		return nil, ErrAlreadyMember
	}
	req := &models.CommunityJoinRequest{
		CommunityID: communityID,
		UserID:      userID,
		Answers:     answers,
	}
	if req.Answers == nil {
		req.Answers = map[string]string{}
	}
	if err := s.store.CreateJoinRequest(ctx, req); err != nil {
		return nil, err
	}
	return &JoinResult{Joined: false, Request: req}, nil
}

func (s *Service) Accept(ctx context.Context, communityID, requestID, actorID uuid.UUID) error {
	if err := s.requireOwner(ctx, communityID, actorID); err != nil {
		return err
	}
	userID, err := s.store.AcceptJoinRequest(ctx, communityID, requestID, actorID)
	if err != nil {
		return err
	}
	s.notify(ctx, userID, models.NotificationCommunityAccepted, "Join request accepted", "Your request to join the community was accepted.")
	return nil
}

func (s *Service) Reject(ctx context.Context, communityID, requestID, actorID uuid.UUID) error {
	if err := s.requireOwner(ctx, communityID, actorID); err != nil {
		return err
	}
	userID, err := s.store.RejectJoinRequest(ctx, communityID, requestID, actorID)
	if err != nil {
		return err
	}
	s.notify(ctx, userID, models.NotificationCommunityRejected, "Join request declined", "Your request to join the community was declined.")
	return nil
}

// ListRequests returns pending requests with answers resolved against the
// community's configured questions. Every configured question appears once
// per request; skipped ones carry the placeholder answer. Answers keyed to a
// question that no longer exists are dropped.
func (s *Service) ListRequests(ctx context.Context, communityID, actorID uuid.UUID) ([]models.CommunityJoinRequestDetail, error) {
	if err := s.requireOwner(ctx, communityID, actorID); err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(ctx, communityID)
	if err != nil {
		return nil, err
	}
	reqs, details, err := s.store.ListPendingRequests(ctx, communityID)
	if err != nil {
		return nil, err
	}

	out := make([]models.CommunityJoinRequestDetail, 0, len(reqs))
	for _, req := range reqs {
		d := details[req.ID]
		d.Answers = resolveAnswers(questions, req.Answers)
		out = append(out, d)
	}
	return out, nil
}

func resolveAnswers(questions []models.CommunityQuestion, answers map[string]string) []models.AnsweredQuestion {
	out := make([]models.AnsweredQuestion, 0, len(questions))
	for _, q := range questions {
		answer, ok := answers[q.ID.String()]
		if !ok || answer == "" {
			answer = models.NoAnswerPlaceholder
		}
		out = append(out, models.AnsweredQuestion{QuestionID: q.ID, Question: q.Text, Answer: answer})
	}
	return out
}

func (s *Service) Leave(ctx context.Context, communityID, userID uuid.UUID) error {
	if _, err := s.Get(ctx, communityID); err != nil {
		return err
	}
	return s.store.RemoveMember(ctx, communityID, userID)
}

func (s *Service) ListMembers(ctx context.Context, communityID uuid.UUID) ([]models.CommunityMember, error) {
	if _, err := s.Get(ctx, communityID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, communityID)
}

func (s *Service) SetQuestions(ctx context.Context, communityID, actorID uuid.UUID, texts []string) ([]models.CommunityQuestion, error) {
	if err := s.requireOwner(ctx, communityID, actorID); err != nil {
		return nil, err
	}
	return s.store.SetQuestions(ctx, communityID, texts)
}

func (s *Service) ListQuestions(ctx context.Context, communityID uuid.UUID) ([]models.CommunityQuestion, error) {
	if _, err := s.Get(ctx, communityID); err != nil {
		return nil, err
	}
	return s.store.ListQuestions(ctx, communityID)
}

// IsMember is used by other features that gate on community membership.
func (s *Service) IsMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error) {
	return s.store.IsMember(ctx, communityID, userID)
}

func (s *Service) requireOwner(ctx context.Context, communityID, actorID uuid.UUID) error {
	cm, err := s.Get(ctx, communityID)
	if err != nil {
		return err
	}
	if cm.CreatedBy != actorID {
		return ErrNotOwner
	}
	return nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, kind, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, userID, kind, subject, body); err != nil {
		s.logger.Warn("notification enqueue failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
