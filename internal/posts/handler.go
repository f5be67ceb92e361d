package posts

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/response"
	"github.com/eventmate/backend/pkg/storage"
)

// MembershipChecker gates posting to community members.
type MembershipChecker interface {
	IsMember(ctx context.Context, communityID, userID uuid.UUID) (bool, error)
}

// CreatePostRequest is the body for POST /communities/:communityId/posts.
type CreatePostRequest struct {
	Body     string `json:"body" binding:"required"`
	ImageURL string `json:"image_url"`
}

// CommentRequest is the body for POST /posts/:postId/comments.
type CommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// UploadURLRequest is the body for POST /posts/upload-url.
type UploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// Handler handles post, like, and comment HTTP endpoints.
type Handler struct {
	repo    *Repository
	members MembershipChecker
	s3      *storage.S3
	logger  *zap.Logger
}

// NewHandler creates a posts handler. s3 may be nil when object storage is
// not configured; the upload-url endpoint then reports unavailable.
func NewHandler(repo *Repository, members MembershipChecker, s3 *storage.S3, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, members: members, s3: s3, logger: logger}
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextUserID).(uuid.UUID)
}

func postIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		response.BadRequest(c, "invalid post id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /communities/:communityId/posts (members only).
func (h *Handler) Create(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	userID := currentUser(c)
	member, err := h.members.IsMember(c.Request.Context(), communityID, userID)
	if err != nil {
		response.Internal(c, "failed to check membership")
		return
	}
	if !member {
		response.Forbidden(c, "only members can post")
		return
	}
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := &models.Post{
		CommunityID: communityID,
		AuthorID:    userID,
		Body:        req.Body,
		ImageURL:    req.ImageURL,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("create post failed", zap.Error(err))
		response.Internal(c, "failed to create post")
		return
	}
	response.Created(c, p)
}

// ListByCommunity handles GET /communities/:communityId/posts.
func (h *Handler) ListByCommunity(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("communityId"))
	if err != nil {
		response.BadRequest(c, "invalid community id")
		return
	}
	list, err := h.repo.ListByCommunity(c.Request.Context(), communityID, currentUser(c))
	if err != nil {
		response.Internal(c, "failed to load posts")
		return
	}
	response.OK(c, list)
}

// Feed handles GET /feed: posts from the caller's communities.
func (h *Handler) Feed(c *gin.Context) {
	list, err := h.repo.ListFeed(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Internal(c, "failed to load feed")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /posts/:postId.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id, currentUser(c))
	if err != nil {
		response.Internal(c, "failed to load post")
		return
	}
	if p == nil {
		response.NotFound(c, "post not found")
		return
	}
	response.OK(c, p)
}

// Delete handles DELETE /posts/:postId (author only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	deleted, err := h.repo.Delete(c.Request.Context(), id, currentUser(c))
	if err != nil {
		response.Internal(c, "failed to delete post")
		return
	}
	if !deleted {
		response.NotFound(c, "post not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// Like handles POST /posts/:postId/like. Idempotent.
func (h *Handler) Like(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	if err := h.repo.Like(c.Request.Context(), id, currentUser(c)); err != nil {
		response.Internal(c, "failed to like post")
		return
	}
	response.OK(c, gin.H{"liked": true})
}

// Unlike handles POST /posts/:postId/unlike. Idempotent.
func (h *Handler) Unlike(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	if err := h.repo.Unlike(c.Request.Context(), id, currentUser(c)); err != nil {
		response.Internal(c, "failed to unlike post")
		return
	}
	response.OK(c, gin.H{"liked": false})
}

// CreateComment handles POST /posts/:postId/comments.
func (h *Handler) CreateComment(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	cm := &models.Comment{PostID: id, AuthorID: currentUser(c), Body: req.Body}
	if err := h.repo.CreateComment(c.Request.Context(), cm); err != nil {
		h.logger.Error("create comment failed", zap.Error(err), zap.String("post_id", id.String()))
		response.Internal(c, "failed to create comment")
		return
	}
	response.Created(c, cm)
}

// ListComments handles GET /posts/:postId/comments.
func (h *Handler) ListComments(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	list, err := h.repo.ListComments(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load comments")
		return
	}
	response.OK(c, list)
}

// DeleteComment handles DELETE /comments/:commentId (author only).
func (h *Handler) DeleteComment(c *gin.Context) {
	id, err := uuid.Parse(c.Param("commentId"))
	if err != nil {
		response.BadRequest(c, "invalid comment id")
		return
	}
	deleted, err := h.repo.DeleteComment(c.Request.Context(), id, currentUser(c))
	if err != nil {
		response.Internal(c, "failed to delete comment")
		return
	}
	if !deleted {
		response.NotFound(c, "comment not found")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// UploadURL handles POST /posts/upload-url: a presigned PUT for a post image.
func (h *Handler) UploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "object storage not configured")
		return
	}
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "filename and content_type required")
		return
	}
	if !storage.ValidateImageFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	key := storage.PostImageKey(uuid.NewString(), req.Filename)
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), key, req.ContentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign upload failed", zap.Error(err))
		response.Internal(c, "failed to create upload url")
		return
	}
	response.OK(c, gin.H{
		"upload_url": url,
		"key":        key,
		"public_url": h.s3.PublicObjectURL(key),
	})
}
