package audit

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/response"
)

// EventGetter resolves an event for the organizer gate.
type EventGetter interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
}

// CommunityGetter resolves a community for the owner gate.
type CommunityGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Community, error)
}

// Handler exposes the audit trail to the controlling organizer or owner.
type Handler struct {
	repo        *Repository
	events      EventGetter
	communities CommunityGetter
	logger      *zap.Logger
}

// NewHandler creates an audit handler.
func NewHandler(repo *Repository, events EventGetter, communities CommunityGetter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, events: events, communities: communities, logger: logger}
}

// ListForEvent handles GET /events/:eventId/audit (organizer only).
func (h *Handler) ListForEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load event")
		return
	}
	if e == nil {
		response.NotFound(c, "event not found")
		return
	}
	if e.OrganizerID != c.MustGet(middleware.ContextUserID).(uuid.UUID) {
		response.Forbidden(c, "only the organizer may view the audit trail")
		return
	}
	h.list(c, models.AuditScopeEvent, id)
}

// ListForCommunity handles GET /communities/:communityId/audit (owner only).
func (h *Handler) ListForCommunity(c *gin.Context) {
	id, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	cm, err := h.communities.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load community")
		return
	}
	if cm == nil {
		response.NotFound(c, "community not found")
		return
	}
	if cm.CreatedBy != c.MustGet(middleware.ContextUserID).(uuid.UUID) {
		response.Forbidden(c, "only the owner may view the audit trail")
		return
	}
	h.list(c, models.AuditScopeCommunity, id)
}

func (h *Handler) list(c *gin.Context, scope string, parentID uuid.UUID) {
	entries, err := h.repo.ListByParent(c.Request.Context(), scope, parentID)
	if err != nil {
		h.logger.Error("load audit trail failed", zap.Error(err), zap.String("parent_id", parentID.String()))
		response.Internal(c, "failed to load audit trail")
		return
	}
	response.OK(c, entries)
}
