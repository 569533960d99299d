package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, 7, 20, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T, store storage.Store) *Server {
	t.Helper()
	s := &Server{clock: clock.Frozen{At: testNow}, store: store}
	s.engine = gin.New()
	s.setupRoutes()
	return s
}

func doJSON(s *Server, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func seedProspect(t *testing.T, store storage.Store, userID, id string) models.DiscoveredProspect {
	t.Helper()
	p := models.DiscoveredProspect{
		UserID:         userID,
		ProspectID:     id,
		Name:           "Jane Doe",
		Organization:   "Acme Corp",
		Category:       "recruiter",
		ApprovalStatus: models.ApprovalPending,
		Scores:         models.ProspectScores{Fit: 0.8, ReferralCapacity: 0.5, SignalStrength: 0.4},
	}
	require.NoError(t, storage.PutJSON(context.Background(), store, storage.CollectionProspects, userID, id, &p))
	return p
}

func TestApproveProspectsHandler(t *testing.T) {
	store := storage.NewMemoryStore()
	seedProspect(t, store, "u1", "p1")
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/prospects/approve", map[string]any{
		"user_id":         "u1",
		"prospect_ids":    []string{"p1"},
		"approval_status": "approved",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.True(t, env.Success)
}

func TestApproveProspectsHandler_NotFound(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/prospects/approve", map[string]any{
		"user_id":         "u1",
		"prospect_ids":    []string{"missing"},
		"approval_status": "approved",
	})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScoreProspectsHandler(t *testing.T) {
	store := storage.NewMemoryStore()
	seedProspect(t, store, "u1", "p1")
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/prospects/score", map[string]any{
		"user_id":      "u1",
		"prospect_ids": []string{"p1"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			Scores []prospectScoreResult `json:"scores"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Scores, 1)
	require.InDelta(t, 0.8*0.5+0.5*0.3+0.4*0.2, body.Data.Scores[0].Score, 0.0001)
}

func TestDiscoverProspectsHandler_MissingCategories(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/prospects/discover", map[string]any{
		"user_id": "u1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
