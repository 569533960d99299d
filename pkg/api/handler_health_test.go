package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/storage"
)

func TestHealthHandler_Healthy(t *testing.T) {
	store := storage.NewMemoryStore()
	s := newTestServer(t, store)

	w := doJSON(s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, healthStatusHealthy, resp.Status)
	require.Equal(t, healthStatusHealthy, resp.Checks["storage"].Status)
}
