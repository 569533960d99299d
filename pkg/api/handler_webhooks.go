package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

func (s *Server) listWebhooksHandler(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}
	webhooks, err := storage.QueryJSON[models.Webhook](c.Request.Context(), s.store, storage.CollectionWebhooks, userID, nil, nil, 0)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"webhooks": webhooks})
}

// createWebhookRequest is POST /api/webhooks's body.
type createWebhookRequest struct {
	UserID                string               `json:"user_id" binding:"required"`
	URL                   string               `json:"url" binding:"required,url"`
	EventTypes            []models.ActivityType `json:"event_types" binding:"required,min=1"`
	DisabledAfterFailures int                  `json:"disabled_after_failures"`
}

func (s *Server) createWebhookHandler(c *gin.Context) {
	var req createWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	disabledAfter := req.DisabledAfterFailures
	if disabledAfter <= 0 {
		disabledAfter = 5
		if s.cfg != nil && s.cfg.Webhooks.DefaultDisabledAfterFailures > 0 {
			disabledAfter = s.cfg.Webhooks.DefaultDisabledAfterFailures
		}
	}

	now := s.now()
	webhook := models.Webhook{
		ID:                    uuid.NewString(),
		UserID:                req.UserID,
		URL:                   req.URL,
		EventTypes:            req.EventTypes,
		Secret:                generateWebhookSecret(),
		Active:                true,
		DisabledAfterFailures: disabledAfter,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := storage.PutJSON(c.Request.Context(), s.store, storage.CollectionWebhooks, req.UserID, webhook.ID, &webhook); err != nil {
		respondError(c, err)
		return
	}
	s.webhooks.EnsureSubscribed(req.UserID)
	ok(c, http.StatusCreated, webhook)
}

// updateWebhookRequest is PUT /api/webhooks/:id's body.
type updateWebhookRequest struct {
	UserID     string                 `json:"user_id" binding:"required"`
	URL        string                 `json:"url"`
	EventTypes []models.ActivityType  `json:"event_types"`
	Active     *bool                  `json:"active"`
}

func (s *Server) updateWebhookHandler(c *gin.Context) {
	id := c.Param("id")
	var req updateWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var webhook models.Webhook
	if err := storage.GetJSON(ctx, s.store, storage.CollectionWebhooks, req.UserID, id, &webhook); err != nil {
		respondError(c, err)
		return
	}

	if req.URL != "" {
		webhook.URL = req.URL
	}
	if len(req.EventTypes) > 0 {
		webhook.EventTypes = req.EventTypes
	}
	if req.Active != nil {
		webhook.Active = *req.Active
		if webhook.Active {
			webhook.ConsecutiveFailures = 0
		}
	}
	webhook.UpdatedAt = s.now()

	if err := storage.PutJSON(ctx, s.store, storage.CollectionWebhooks, req.UserID, id, &webhook); err != nil {
		respondError(c, err)
		return
	}
	s.webhooks.EnsureSubscribed(req.UserID)
	ok(c, http.StatusOK, webhook)
}

func (s *Server) deleteWebhookHandler(c *gin.Context) {
	id := c.Param("id")
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}
	if err := s.store.Delete(c.Request.Context(), storage.CollectionWebhooks, userID, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func generateWebhookSecret() string {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
