package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

func seedInsight(t *testing.T, store storage.Store, userID, id, topic string, pillar models.Pillar, audiences []string) {
	t.Helper()
	insight := models.Insight{
		UserID:    userID,
		InsightID: id,
		Topic:     topic,
		Pillar:    pillar,
		Audiences: audiences,
		CreatedAt: testNow,
	}
	require.NoError(t, storage.PutJSON(context.Background(), store, storage.CollectionResearchInsights, userID, id, &insight))
}

func TestAutoDiscoverHandler_FiltersByTopicAndAudience(t *testing.T) {
	store := storage.NewMemoryStore()
	seedInsight(t, store, "u1", "i1", "go concurrency patterns", models.PillarThoughtLeadership, []string{"founders"})
	seedInsight(t, store, "u1", "i2", "react hooks", models.PillarThoughtLeadership, []string{"engineers"})
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/research/enhanced/auto-discover", map[string]any{
		"user_id":   "u1",
		"topic":     "go",
		"audiences": []string{"founders"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Insights []models.Insight `json:"insights"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Insights, 1)
	require.Equal(t, "i1", body.Data.Insights[0].InsightID)
}

func TestCompleteWorkflowHandler_MissingTopic(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/research/enhanced/complete-workflow", map[string]any{
		"user_id": "u1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunScheduledHandler_MissingFrequency(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/research/enhanced/run-scheduled?user_id=u1", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
