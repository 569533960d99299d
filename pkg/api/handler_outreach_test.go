package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/outreach"
	"github.com/outreachforge/prospector/pkg/storage"
)

func TestSegmentHandler(t *testing.T) {
	store := storage.NewMemoryStore()
	seedProspect(t, store, "u1", "p1")
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/outreach/segment", map[string]any{
		"user_id":      "u1",
		"prospect_ids": []string{"p1"},
	})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPrioritizeHandler(t *testing.T) {
	store := storage.NewMemoryStore()
	seedProspect(t, store, "u1", "p1")
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/outreach/prioritize", map[string]any{
		"user_id":      "u1",
		"prospect_ids": []string{"p1"},
		"min_score":    0.0,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Prioritized []outreach.Prioritized `json:"prioritized"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.Prioritized, 1)
}

func TestGenerateSequenceHandler(t *testing.T) {
	store := storage.NewMemoryStore()
	seedProspect(t, store, "u1", "p1")
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodPost, "/api/outreach/sequence/generate", map[string]any{
		"user_id":        "u1",
		"prospect_id":    "p1",
		"sequence_type":  string(models.Sequence3Step),
		"segment":        string(models.SegmentReferralNetwork),
		"outreach_angle": "shared interest in Go tooling",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data models.OutreachSequence `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "u1", body.Data.UserID)
	require.NotEmpty(t, body.Data.SequenceID)
}

func TestTrackEngagementHandler(t *testing.T) {
	store := storage.NewMemoryStore()
	seedProspect(t, store, "u1", "p1")
	s := newTestServer(t, store)
	s.outreachTracker = &outreach.Tracker{Store: store, Learning: fakeLearningUpdater{}, Clock: s.clock}

	w := doJSON(s, http.MethodPost, "/api/outreach/track-engagement", map[string]any{
		"user_id":       "u1",
		"prospect_id":   "p1",
		"outreach_type": "connection_request",
		"status":        string(models.StepSent),
	})
	require.Equal(t, http.StatusOK, w.Code)
}

type fakeLearningUpdater struct{}

func (fakeLearningUpdater) RecordEngagement(_ context.Context, _ string, _ models.ProspectMetric) error {
	return nil
}
