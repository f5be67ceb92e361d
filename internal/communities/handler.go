package communities

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/response"
)

// CreateCommunityRequest is the body for POST /communities.
type CreateCommunityRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	ImageURL    string   `json:"image_url"`
	IsPrivate   bool     `json:"is_private"`
	Questions   []string `json:"questions"`
}

// JoinBody is the body for POST /communities/:communityId/join. Answers are
// keyed by question ID and only matter for private communities.
type JoinBody struct {
	Answers map[string]string `json:"answers"`
}

// DecideBody is the body for accept-request and reject-request.
type DecideBody struct {
	RequestID uuid.UUID `json:"requestId" binding:"required"`
}

// QuestionsBody is the body for PUT /communities/:communityId/questions.
type QuestionsBody struct {
	Questions []string `json:"questions" binding:"required"`
}

// Handler handles community HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a communities handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextUserID).(uuid.UUID)
}

func communityIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /communities.
func (h *Handler) Create(c *gin.Context) {
	var req CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cm := &models.Community{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		IsPrivate:   req.IsPrivate,
		CreatedBy:   currentUser(c),
	}
	if err := h.svc.Create(c.Request.Context(), cm); err != nil {
		h.logger.Error("create community failed", zap.Error(err))
		response.Internal(c, "failed to create community")
		return
	}
	if len(req.Questions) > 0 {
		if _, err := h.svc.SetQuestions(c.Request.Context(), cm.ID, cm.CreatedBy, req.Questions); err != nil {
			h.logger.Error("set questions failed", zap.Error(err), zap.String("community_id", cm.ID.String()))
			response.Internal(c, "failed to save questions")
			return
		}
	}
	response.Created(c, cm)
}

// List handles GET /communities.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to load communities")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /communities/:communityId.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	cm, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "community not found")
		return
	}
	response.OK(c, cm)
}

// Join handles POST /communities/:communityId/join.
func (h *Handler) Join(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	var body JoinBody
	_ = c.ShouldBindJSON(&body)
	result, err := h.svc.Join(c.Request.Context(), id, currentUser(c), body.Answers)
	if err != nil {
		switch {
		case errors.Is(err, ErrCommunityNotFound):
			response.NotFound(c, "community not found")
		case errors.Is(err, ErrRequestAlreadySent):
			response.BadRequest(c, "Request already sent")
		case errors.Is(err, ErrAlreadyMember):
			response.BadRequest(c, ErrAlreadyMember.Error())
		default:
			h.logger.Error("join failed", zap.Error(err), zap.String("community_id", id.String()))
			response.Internal(c, "failed to join community")
		}
		return
	}
	response.OK(c, result)
}

// Leave handles POST /communities/:communityId/leave.
func (h *Handler) Leave(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), id, currentUser(c)); err != nil {
		if errors.Is(err, ErrCommunityNotFound) {
			response.NotFound(c, "community not found")
			return
		}
		response.Internal(c, "failed to leave community")
		return
	}
	response.OK(c, gin.H{"left": true})
}

// ListRequests handles GET /communities/:communityId/requests (owner only).
func (h *Handler) ListRequests(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	list, err := h.svc.ListRequests(c.Request.Context(), id, currentUser(c))
	if err != nil {
		h.decideError(c, id, err, "failed to load requests")
		return
	}
	response.OK(c, list)
}

// Accept handles POST /communities/:communityId/accept-request (owner only).
func (h *Handler) Accept(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	var body DecideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "requestId required")
		return
	}
	if err := h.svc.Accept(c.Request.Context(), id, body.RequestID, currentUser(c)); err != nil {
		h.decideError(c, id, err, "failed to accept request")
		return
	}
	response.OK(c, gin.H{"accepted": true})
}

// Reject handles POST /communities/:communityId/reject-request (owner only).
func (h *Handler) Reject(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	var body DecideBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "requestId required")
		return
	}
	if err := h.svc.Reject(c.Request.Context(), id, body.RequestID, currentUser(c)); err != nil {
		h.decideError(c, id, err, "failed to reject request")
		return
	}
	response.OK(c, gin.H{"rejected": true})
}

// ListMembers handles GET /communities/:communityId/members.
func (h *Handler) ListMembers(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	list, err := h.svc.ListMembers(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCommunityNotFound) {
			response.NotFound(c, "community not found")
			return
		}
		response.Internal(c, "failed to load members")
		return
	}
	response.OK(c, list)
}

// SetQuestions handles PUT /communities/:communityId/questions (owner only).
func (h *Handler) SetQuestions(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	var body QuestionsBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "questions required")
		return
	}
	list, err := h.svc.SetQuestions(c.Request.Context(), id, currentUser(c), body.Questions)
	if err != nil {
		h.decideError(c, id, err, "failed to save questions")
		return
	}
	response.OK(c, list)
}

// ListQuestions handles GET /communities/:communityId/questions.
func (h *Handler) ListQuestions(c *gin.Context) {
	id, ok := communityIDParam(c)
	if !ok {
		return
	}
	list, err := h.svc.ListQuestions(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrCommunityNotFound) {
			response.NotFound(c, "community not found")
			return
		}
		response.Internal(c, "failed to load questions")
		return
	}
	response.OK(c, list)
}

func (h *Handler) decideError(c *gin.Context, communityID uuid.UUID, err error, fallback string) {
	switch {
	case errors.Is(err, ErrCommunityNotFound):
		response.NotFound(c, "community not found")
	case errors.Is(err, ErrRequestNotFound):
		response.NotFound(c, "request not found")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, ErrNotOwner.Error())
	default:
		h.logger.Error(fallback, zap.Error(err), zap.String("community_id", communityID.String()))
		response.Internal(c, fallback)
	}
}
