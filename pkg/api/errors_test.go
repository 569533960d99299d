package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/providers"
	"github.com/outreachforge/prospector/pkg/storage"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name       string
		err        error
		expectCode int
		expectKind string
	}{
		{
			name:       "not found maps to 404",
			err:        &storage.ErrNotFound{Collection: "prospects", UserID: "u1", ID: "p1"},
			expectCode: http.StatusNotFound,
			expectKind: "not_found",
		},
		{
			name:       "validation error maps to 400",
			err:        config.NewValidationError("queue", "worker_count", fmt.Errorf("must be positive")),
			expectCode: http.StatusBadRequest,
			expectKind: "validation",
		},
		{
			name:       "provider config error maps to 503",
			err:        providers.NewError(providers.KindConfig, "perplexity.Complete", fmt.Errorf("missing api key")),
			expectCode: http.StatusServiceUnavailable,
			expectKind: "config",
		},
		{
			name:       "provider quota error maps to 429",
			err:        providers.NewError(providers.KindQuota, "google.Query", fmt.Errorf("rate limited")),
			expectCode: http.StatusTooManyRequests,
			expectKind: "quota",
		},
		{
			name:       "unknown error maps to 500",
			err:        fmt.Errorf("something unexpected happened"),
			expectCode: http.StatusInternalServerError,
			expectKind: "internal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tt.err)

			assert.Equal(t, tt.expectCode, w.Code)
			var body envelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.expectKind, body.Error.Code)
		})
	}
}
