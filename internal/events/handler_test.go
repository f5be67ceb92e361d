package events

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmate/backend/internal/middleware"
)

func newTestRouter(svc *Service, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
	})
	h := NewHandler(svc, nil)
	r.POST("/events/:eventId/request", h.Request)
	r.POST("/events/:eventId/cancel-request", h.CancelRequest)
	r.GET("/events/:eventId/requests", h.ListRequests)
	r.POST("/accept", h.Accept)
	r.POST("/reject", h.Reject)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestEndpointDuplicate(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(5)
	user := uuid.New()
	svc, _ := newTestService(store)
	r := newTestRouter(svc, user)

	path := fmt.Sprintf("/events/%s/request", e.ID)
	w := doJSON(t, r, http.MethodPost, path, gin.H{"comment": "hi"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, path, gin.H{"comment": "hi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Request already sent")
}

func TestRequestEndpointUnknownEvent(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(store)
	r := newTestRouter(svc, uuid.New())

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/events/%s/request", uuid.New()), gin.H{})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/events/not-a-uuid/request", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAcceptEndpoint(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(5)
	user := uuid.New()
	svc, _ := newTestService(store)

	requester := newTestRouter(svc, user)
	w := doJSON(t, requester, http.MethodPost, fmt.Sprintf("/events/%s/request", e.ID), gin.H{"comment": "hi"})
	require.Equal(t, http.StatusOK, w.Code)

	organizer := newTestRouter(svc, e.OrganizerID)
	w = doJSON(t, organizer, http.MethodPost, "/accept", gin.H{"eventId": e.ID, "userId": user})
	assert.Equal(t, http.StatusOK, w.Code)

	// Accepting again: the request is gone.
	w = doJSON(t, organizer, http.MethodPost, "/accept", gin.H{"eventId": e.ID, "userId": user})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRejectEndpointRequiresOrganizer(t *testing.T) {
	store := newFakeStore()
	e := store.addEvent(5)
	user := uuid.New()
	svc, _ := newTestService(store)

	requester := newTestRouter(svc, user)
	w := doJSON(t, requester, http.MethodPost, fmt.Sprintf("/events/%s/request", e.ID), gin.H{})
	require.Equal(t, http.StatusOK, w.Code)
	req := store.pendingFor(e.ID, user)
	require.NotNil(t, req)

	w = doJSON(t, requester, http.MethodPost, "/reject", gin.H{"requestId": req.ID, "eventId": e.ID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	organizer := newTestRouter(svc, e.OrganizerID)
	w = doJSON(t, organizer, http.MethodPost, "/reject", gin.H{"requestId": req.ID, "eventId": e.ID})
	assert.Equal(t, http.StatusOK, w.Code)
}
