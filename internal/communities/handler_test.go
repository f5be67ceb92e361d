package communities

import (
	"bytes"
	"context"
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
	r.POST("/communities/:communityId/join", h.Join)
	r.GET("/communities/:communityId/requests", h.ListRequests)
	r.POST("/communities/:communityId/accept-request", h.Accept)
	r.POST("/communities/:communityId/reject-request", h.Reject)
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

func TestJoinEndpointDuplicate(t *testing.T) {
	svc, _, _ := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)
	r := newTestRouter(svc, user)

	path := fmt.Sprintf("/communities/%s/join", cm.ID)
	w := doJSON(t, r, http.MethodPost, path, gin.H{"answers": gin.H{}})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, path, gin.H{"answers": gin.H{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Request already sent")
}

func TestJoinEndpointPublicCommunity(t *testing.T) {
	svc, store, _ := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, false)
	r := newTestRouter(svc, user)

	w := doJSON(t, r, http.MethodPost, fmt.Sprintf("/communities/%s/join", cm.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"joined":true`)

	member, err := store.IsMember(context.Background(), cm.ID, user)
	require.NoError(t, err)
	assert.True(t, member)
}

func TestAcceptRequestEndpoint(t *testing.T) {
	svc, store, _ := newTestService()
	owner, user := uuid.New(), uuid.New()
	cm := seedCommunity(t, svc, owner, true)

	requester := newTestRouter(svc, user)
	w := doJSON(t, requester, http.MethodPost, fmt.Sprintf("/communities/%s/join", cm.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var reqID uuid.UUID
	for id := range store.requests {
		reqID = id
	}

	// a non-owner is rejected
	w = doJSON(t, requester, http.MethodPost, fmt.Sprintf("/communities/%s/accept-request", cm.ID), gin.H{"requestId": reqID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	ownerRouter := newTestRouter(svc, owner)
	w = doJSON(t, ownerRouter, http.MethodPost, fmt.Sprintf("/communities/%s/accept-request", cm.ID), gin.H{"requestId": reqID})
	assert.Equal(t, http.StatusOK, w.Code)

	// request already resolved
	w = doJSON(t, ownerRouter, http.MethodPost, fmt.Sprintf("/communities/%s/reject-request", cm.ID), gin.H{"requestId": reqID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
