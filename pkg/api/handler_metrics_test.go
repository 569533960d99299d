package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/learning"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

func newMetricsTestServer(t *testing.T) *Server {
	t.Helper()
	store := storage.NewMemoryStore()
	s := newTestServer(t, store)
	s.learning = &learning.Core{Store: store, Clock: s.clock}
	return s
}

func TestUpdateContentMetricHandler_RecomputesEngagementRate(t *testing.T) {
	s := newMetricsTestServer(t)

	w := doJSON(s, http.MethodPost, "/api/metrics/enhanced/content/update", map[string]any{
		"user_id": "u1",
		"metric": map[string]any{
			"content_id": "c1",
			"pillar":     string(models.PillarThoughtLeadership),
			"platform":   "linkedin",
			"metrics": map[string]any{
				"likes":       10,
				"comments":    5,
				"shares":      2,
				"impressions": 100,
			},
			"engagement_rate": 999.0,
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.ContentMetric `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.InDelta(t, 17.0, body.Data.EngagementRate, 0.01)
}

func TestListPatternsHandler_RequiresUserID(t *testing.T) {
	s := newMetricsTestServer(t)
	w := doJSON(s, http.MethodGet, "/api/metrics/enhanced/learning/patterns", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPatternsHandler_Empty(t *testing.T) {
	s := newMetricsTestServer(t)
	w := doJSON(s, http.MethodGet, "/api/metrics/enhanced/learning/patterns?user_id=u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
