package venues

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/response"
)

// VenueRequest is the body for venue create and update.
type VenueRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Capacity    int    `json:"capacity"`
	ImageURL    string `json:"image_url"`
}

// Handler handles venue HTTP endpoints. Writes are admin-gated at the router.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a venues handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

func venueIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("venueId"))
	if err != nil {
		response.BadRequest(c, "invalid venue id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /venues.
func (h *Handler) Create(c *gin.Context) {
	var req VenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	creator := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	v := &models.Venue{
		Name:        req.Name,
		Description: req.Description,
		Address:     req.Address,
		City:        req.City,
		Capacity:    req.Capacity,
		ImageURL:    req.ImageURL,
		CreatedBy:   &creator,
	}
	if err := h.repo.Create(c.Request.Context(), v); err != nil {
		h.logger.Error("create venue failed", zap.Error(err))
		response.Internal(c, "failed to create venue")
		return
	}
	response.Created(c, v)
}

// List handles GET /venues?city=&q=.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context(), c.Query("city"), c.Query("q"))
	if err != nil {
		response.Internal(c, "failed to load venues")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /venues/:venueId.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := venueIDParam(c)
	if !ok {
		return
	}
	v, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load venue")
		return
	}
	if v == nil {
		response.NotFound(c, "venue not found")
		return
	}
	response.OK(c, v)
}

// Update handles PATCH /venues/:venueId.
func (h *Handler) Update(c *gin.Context) {
	id, ok := venueIDParam(c)
	if !ok {
		return
	}
	v, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil || v == nil {
		response.NotFound(c, "venue not found")
		return
	}
	var req VenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v.Name = req.Name
	v.Description = req.Description
	v.Address = req.Address
	v.City = req.City
	v.Capacity = req.Capacity
	v.ImageURL = req.ImageURL
	if err := h.repo.Update(c.Request.Context(), v); err != nil {
		h.logger.Error("update venue failed", zap.Error(err), zap.String("venue_id", id.String()))
		response.Internal(c, "failed to update venue")
		return
	}
	response.OK(c, v)
}

// Delete handles DELETE /venues/:venueId.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := venueIDParam(c)
	if !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete venue")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}
