package events

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmate/backend/internal/middleware"
	"github.com/eventmate/backend/internal/models"
	"github.com/eventmate/backend/pkg/response"
)

// CreateEventRequest is the body for POST /events.
type CreateEventRequest struct {
	Title             string     `json:"title" binding:"required"`
	Description       string     `json:"description"`
	VenueID           *uuid.UUID `json:"venue_id"`
	StartsAt          time.Time  `json:"starts_at" binding:"required"`
	TotalParticipants int        `json:"total_participants"`
	ImageURL          string     `json:"image_url"`
}

// JoinRequestBody is the body for POST /events/:eventId/request.
type JoinRequestBody struct {
	Comment string `json:"comment"`
}

// AcceptBody is the body for POST /accept.
type AcceptBody struct {
	EventID uuid.UUID `json:"eventId" binding:"required"`
	UserID  uuid.UUID `json:"userId" binding:"required"`
}

// RejectBody is the body for POST /reject.
type RejectBody struct {
	RequestID uuid.UUID `json:"requestId" binding:"required"`
	EventID   uuid.UUID `json:"eventId" binding:"required"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an events handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(middleware.ContextUserID).(uuid.UUID)
}

func eventIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("eventId"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /events.
func (h *Handler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e := &models.Event{
		Title:             req.Title,
		Description:       req.Description,
		VenueID:           req.VenueID,
		OrganizerID:       currentUser(c),
		StartsAt:          req.StartsAt,
		TotalParticipants: req.TotalParticipants,
		ImageURL:          req.ImageURL,
	}
	if err := h.svc.Create(c.Request.Context(), e); err != nil {
		if errors.Is(err, ErrEventLimitReached) {
			response.BadRequest(c, ErrEventLimitReached.Error())
			return
		}
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// List handles GET /events.
func (h *Handler) List(c *gin.Context) {
	upcoming := c.Query("upcoming") == "true"
	list, err := h.svc.store.ListEvents(c.Request.Context(), upcoming)
	if err != nil {
		response.Internal(c, "failed to load events")
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /users/me/events (events the caller attends).
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.store.ListEventsForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Internal(c, "failed to load events")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:eventId.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /events/:eventId (organizer only).
func (h *Handler) Update(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if e.OrganizerID != currentUser(c) {
		response.Forbidden(c, "only the organizer may update this event")
		return
	}
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	e.Title = req.Title
	e.Description = req.Description
	e.VenueID = req.VenueID
	e.StartsAt = req.StartsAt
	e.TotalParticipants = req.TotalParticipants
	e.ImageURL = req.ImageURL
	if err := h.svc.store.UpdateEvent(c.Request.Context(), e); err != nil {
		h.logger.Error("update event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /events/:eventId (organizer only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if e.OrganizerID != currentUser(c) {
		response.Forbidden(c, "only the organizer may delete this event")
		return
	}
	if err := h.svc.store.DeleteEvent(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete event")
		return
	}
	response.OK(c, gin.H{"deleted": true})
}

// Request handles POST /events/:eventId/request.
func (h *Handler) Request(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	var body JoinRequestBody
	_ = c.ShouldBindJSON(&body)
	req, err := h.svc.Request(c.Request.Context(), id, currentUser(c), body.Comment)
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, ErrRequestAlreadySent):
			response.BadRequest(c, "Request already sent")
		default:
			h.logger.Error("join request failed", zap.Error(err), zap.String("event_id", id.String()))
			response.Internal(c, "failed to send request")
		}
		return
	}
	response.OK(c, req)
}

// CancelRequest handles POST /events/:eventId/cancel-request.
func (h *Handler) CancelRequest(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), id, currentUser(c)); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			response.NotFound(c, "event not found")
			return
		}
		response.Internal(c, "failed to cancel request")
		return
	}
	response.OK(c, gin.H{"cancelled": true})
}

// ListRequests handles GET /events/:eventId/requests (organizer only).
func (h *Handler) ListRequests(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	e, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	if e.OrganizerID != currentUser(c) {
		response.Forbidden(c, "only the organizer may view requests")
		return
	}
	list, err := h.svc.ListRequests(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load requests")
		return
	}
	response.OK(c, list)
}

// Accept handles POST /accept.
func (h *Handler) Accept(c *gin.Context) {
	var body AcceptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "eventId and userId required")
		return
	}
	e, err := h.svc.Accept(c.Request.Context(), body.EventID, body.UserID, currentUser(c))
	if err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(c, "request not found")
		case errors.Is(err, ErrNotOrganizer):
			response.Forbidden(c, ErrNotOrganizer.Error())
		case errors.Is(err, ErrEventFull):
			response.BadRequest(c, ErrEventFull.Error())
		default:
			h.logger.Error("accept failed", zap.Error(err), zap.String("event_id", body.EventID.String()))
			response.Internal(c, "failed to accept request")
		}
		return
	}
	response.OK(c, e)
}

// Reject handles POST /reject.
func (h *Handler) Reject(c *gin.Context) {
	var body RejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "requestId and eventId required")
		return
	}
	if err := h.svc.Reject(c.Request.Context(), body.RequestID, body.EventID, currentUser(c)); err != nil {
		switch {
		case errors.Is(err, ErrEventNotFound):
			response.NotFound(c, "event not found")
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(c, "request not found")
		case errors.Is(err, ErrNotOrganizer):
			response.Forbidden(c, ErrNotOrganizer.Error())
		default:
			h.logger.Error("reject failed", zap.Error(err), zap.String("event_id", body.EventID.String()))
			response.Internal(c, "failed to reject request")
		}
		return
	}
	response.OK(c, gin.H{"rejected": true})
}

// ListAttendees handles GET /events/:eventId/attendees.
func (h *Handler) ListAttendees(c *gin.Context) {
	id, ok := eventIDParam(c)
	if !ok {
		return
	}
	if _, err := h.svc.Get(c.Request.Context(), id); err != nil {
		response.NotFound(c, "event not found")
		return
	}
	list, err := h.svc.store.ListAttendees(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load attendees")
		return
	}
	response.OK(c, list)
}
