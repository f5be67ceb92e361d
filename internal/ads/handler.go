package ads

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/response"
	"github.com/eventmate/backend/pkg/storage"
)

// CreateAdRequest is the body for POST /ads.
type CreateAdRequest struct {
	Title     string `json:"title" binding:"required"`
	ImageKey  string `json:"image_key"`
	TargetURL string `json:"target_url"`
	Position  int    `json:"position"`
}

// Handler handles ad HTTP endpoints. Writes are admin-gated at the router.
type Handler struct {
	repo    *Repository
	s3      *storage.S3
	rotator *Rotator
	logger  *zap.Logger
}

// NewHandler creates an ads handler. s3 and rotator may be nil.
func NewHandler(repo *Repository, s3 *storage.S3, rotator *Rotator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, s3: s3, rotator: rotator, logger: logger}
}

func adIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("adId"))
	if err != nil {
		response.BadRequest(c, "invalid ad id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) resolveImage(a *models.Ad) {
	if h.s3 != nil && a.ImageKey != "" {
		a.ImageURL = h.s3.PublicObjectURL(a.ImageKey)
	}
}

// Upload handles POST /ads/upload: multipart image upload to object storage.
func (h *Handler) Upload(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "object storage not configured")
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !storage.ValidateImageFileType(contentType, header.Filename) {
		response.BadRequest(c, "unsupported image type")
		return
	}
	key := storage.AdKey(uuid.NewString(), header.Filename)
	url, err := h.s3.Upload(c.Request.Context(), key, contentType, file, header.Size, true)
	if err != nil {
		h.logger.Error("ad upload failed", zap.Error(err))
		response.Internal(c, "failed to upload image")
		return
	}
	response.OK(c, gin.H{"key": key, "url": url})
}

// Create handles POST /ads.
func (h *Handler) Create(c *gin.Context) {
	var req CreateAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	a := &models.Ad{
		Title:     req.Title,
		ImageKey:  req.ImageKey,
		TargetURL: req.TargetURL,
		Active:    true,
		Position:  req.Position,
	}
	if err := h.repo.Create(c.Request.Context(), a); err != nil {
		h.logger.Error("create ad failed", zap.Error(err))
		response.Internal(c, "failed to create ad")
		return
	}
	if h.rotator != nil {
		h.rotator.Reload()
	}
	h.resolveImage(a)
	response.Created(c, a)
}

// List handles GET /ads (admin: every ad).
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to load ads")
		return
	}
	for i := range list {
		h.resolveImage(&list[i])
	}
	response.OK(c, list)
}

// ListActive handles GET /ads/active (public carousel contents).
func (h *Handler) ListActive(c *gin.Context) {
	list, err := h.repo.ListActive(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to load ads")
		return
	}
	for i := range list {
		h.resolveImage(&list[i])
	}
	response.OK(c, list)
}

// Toggle handles POST /ads/:adId/toggle.
func (h *Handler) Toggle(c *gin.Context) {
	id, ok := adIDParam(c)
	if !ok {
		return
	}
	active, err := h.repo.ToggleActive(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrAdNotFound) {
			response.NotFound(c, "ad not found")
			return
		}
		response.Internal(c, "failed to toggle ad")
		return
	}
	if h.rotator != nil {
		h.rotator.Reload()
	}
	response.OK(c, gin.H{"active": active})
}

// Delete handles DELETE /ads/:adId. The stored image goes with it.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := adIDParam(c)
	if !ok {
		return
	}
	a, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load ad")
		return
	}
	if a == nil {
		response.NotFound(c, "ad not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete ad")
		return
	}
	if h.s3 != nil && a.ImageKey != "" {
		if err := h.s3.DeleteObject(c.Request.Context(), a.ImageKey); err != nil {
			h.logger.Warn("ad image delete failed", zap.Error(err), zap.String("key", a.ImageKey))
		}
	}
	if h.rotator != nil {
		h.rotator.Reload()
	}
	response.OK(c, gin.H{"deleted": true})
}
