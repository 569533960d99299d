package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/activity"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

func newWebhookTestServer(t *testing.T) *Server {
	t.Helper()
	store := storage.NewMemoryStore()
	s := newTestServer(t, store)
	bus := &activity.Bus{Store: store, Clock: s.clock}
	s.webhooks = &activity.Dispatcher{Store: store, Bus: bus, Clock: s.clock}
	return s
}

func TestCreateAndListWebhooks(t *testing.T) {
	s := newWebhookTestServer(t)

	w := doJSON(s, http.MethodPost, "/api/webhooks", map[string]any{
		"user_id":     "u1",
		"url":         "https://example.com/hook",
		"event_types": []string{string(models.ActivityProspect)},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created struct {
		Data models.Webhook `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Data.ID)
	require.NotEmpty(t, created.Data.Secret)
	require.True(t, created.Data.Active)
	require.Equal(t, 5, created.Data.DisabledAfterFailures)

	list := doJSON(s, http.MethodGet, "/api/webhooks?user_id=u1", nil)
	require.Equal(t, http.StatusOK, list.Code)
}

func TestUpdateWebhook_Deactivate(t *testing.T) {
	s := newWebhookTestServer(t)

	w := doJSON(s, http.MethodPost, "/api/webhooks", map[string]any{
		"user_id":     "u1",
		"url":         "https://example.com/hook",
		"event_types": []string{string(models.ActivityProspect)},
	})
	var created struct {
		Data models.Webhook `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	active := false
	upd := doJSON(s, http.MethodPut, "/api/webhooks/"+created.Data.ID, map[string]any{
		"user_id": "u1",
		"active":  &active,
	})
	require.Equal(t, http.StatusOK, upd.Code)

	var updated struct {
		Data models.Webhook `json:"data"`
	}
	require.NoError(t, json.Unmarshal(upd.Body.Bytes(), &updated))
	require.False(t, updated.Data.Active)
}

func TestDeleteWebhook(t *testing.T) {
	s := newWebhookTestServer(t)
	w := doJSON(s, http.MethodPost, "/api/webhooks", map[string]any{
		"user_id":     "u1",
		"url":         "https://example.com/hook",
		"event_types": []string{string(models.ActivityProspect)},
	})
	var created struct {
		Data models.Webhook `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	del := doJSON(s, http.MethodDelete, "/api/webhooks/"+created.Data.ID+"?user_id=u1", nil)
	require.Equal(t, http.StatusNoContent, del.Code)
}
