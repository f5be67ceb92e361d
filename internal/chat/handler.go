package chat

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/pkg/response"
)

// SendMessageRequest is the body for POST /messages.
type SendMessageRequest struct {
	RecipientID uuid.UUID `json:"recipient_id" binding:"required"`
	Body        string    `json:"body" binding:"required"`
}

// Handler handles the REST side of direct messages.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a chat handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextUserID).(uuid.UUID)
}

// Send handles POST /messages.
func (h *Handler) Send(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "recipient_id and body required")
		return
	}
	m, err := h.svc.Send(c.Request.Context(), currentUser(c), req.RecipientID, req.Body)
	if err != nil {
		if errors.Is(err, ErrSelfMessage) {
			response.BadRequest(c, ErrSelfMessage.Error())
			return
		}
		h.logger.Error("send message failed", zap.Error(err))
		response.Internal(c, "failed to send message")
		return
	}
	response.Created(c, m)
}

// Conversation handles GET /messages/:userId?limit=.
func (h *Handler) Conversation(c *gin.Context) {
	partner, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.svc.Conversation(c.Request.Context(), currentUser(c), partner, limit)
	if err != nil {
		response.Internal(c, "failed to load conversation")
		return
	}
	response.OK(c, list)
}

// Conversations handles GET /conversations.
func (h *Handler) Conversations(c *gin.Context) {
	list, err := h.svc.Conversations(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Internal(c, "failed to load conversations")
		return
	}
	response.OK(c, list)
}
