package social

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/pkg/response"
)

// Handler handles follow-graph HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a social handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextUserID).(uuid.UUID)
}

func userIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return uuid.Nil, false
	}
	return id, true
}

// Follow handles POST /users/:userId/follow. Idempotent; self-follow is
// rejected.
func (h *Handler) Follow(c *gin.Context) {
	target, ok := userIDParam(c)
	if !ok {
		return
	}
	me := currentUser(c)
	if target == me {
		response.BadRequest(c, "cannot follow yourself")
		return
	}
	if err := h.repo.Follow(c.Request.Context(), me, target); err != nil {
		h.logger.Error("follow failed", zap.Error(err), zap.String("followee_id", target.String()))
		response.Internal(c, "failed to follow user")
		return
	}
	response.OK(c, gin.H{"following": true})
}

// Unfollow handles POST /users/:userId/unfollow. Idempotent.
func (h *Handler) Unfollow(c *gin.Context) {
	target, ok := userIDParam(c)
	if !ok {
		return
	}
	if err := h.repo.Unfollow(c.Request.Context(), currentUser(c), target); err != nil {
		response.Internal(c, "failed to unfollow user")
		return
	}
	response.OK(c, gin.H{"following": false})
}

// Followers handles GET /users/:userId/followers.
func (h *Handler) Followers(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	list, err := h.repo.Followers(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load followers")
		return
	}
	response.OK(c, list)
}

// Following handles GET /users/:userId/following.
func (h *Handler) Following(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	list, err := h.repo.Following(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load following")
		return
	}
	response.OK(c, list)
}

// Counts handles GET /users/:userId/follow-counts.
func (h *Handler) Counts(c *gin.Context) {
	id, ok := userIDParam(c)
	if !ok {
		return
	}
	followers, following, err := h.repo.Counts(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load counts")
		return
	}
	viewing := currentUser(c)
	followedByMe := false
	if viewing != id {
		followedByMe, err = h.repo.IsFollowing(c.Request.Context(), viewing, id)
		if err != nil {
			response.Internal(c, "failed to load counts")
			return
		}
	}
	response.OK(c, gin.H{
		"followers":      followers,
		"following":      following,
		"followed_by_me": followedByMe,
	})
}
