package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// completeWorkflowRequest is POST /api/research/enhanced/complete-workflow's
// body.
type completeWorkflowRequest struct {
	UserID   string        `json:"user_id" binding:"required"`
	Topic    string        `json:"topic" binding:"required"`
	Pillar   models.Pillar `json:"pillar"`
	Industry string        `json:"industry"`
}

func (s *Server) completeWorkflowHandler(c *gin.Context) {
	var req completeWorkflowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.Pillar == "" {
		req.Pillar = models.PillarThoughtLeadership
	}

	insight, err := s.research.CompleteWorkflow(c.Request.Context(), req.UserID, req.Topic, req.Pillar, req.Industry)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, insight)
}

// scheduleTopicsRequest is POST /api/research/enhanced/schedule-topics's
// body.
type scheduleTopicsRequest struct {
	UserID    string                         `json:"user_id" binding:"required"`
	Topics    []string                       `json:"topics" binding:"required,min=1"`
	Frequency models.ScheduledTopicFrequency `json:"frequency" binding:"required"`
	Pillar    models.Pillar                  `json:"pillar" binding:"required"`
}

func (s *Server) scheduleTopicsHandler(c *gin.Context) {
	var req scheduleTopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	plan, err := s.scheduler.ScheduleTopics(c.Request.Context(), req.UserID, req.Topics, req.Frequency, req.Pillar)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"plan_id": plan.PlanID})
}

func (s *Server) runScheduledHandler(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}
	frequency := models.ScheduledTopicFrequency(c.Query("frequency"))
	if frequency == "" {
		badRequest(c, "frequency is required")
		return
	}

	count, err := s.scheduler.RunScheduled(c.Request.Context(), userID, frequency)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"topics_run": count})
}

// autoDiscoverRequest is POST /api/research/enhanced/auto-discover's body: a
// read over already-collected insights, filtered by pillar/topic/audiences,
// not a new research run.
type autoDiscoverRequest struct {
	UserID    string        `json:"user_id" binding:"required"`
	Pillar    models.Pillar `json:"pillar"`
	Topic     string        `json:"topic"`
	Audiences []string      `json:"audiences"`
	Limit     int           `json:"limit"`
}

func (s *Server) autoDiscoverHandler(c *gin.Context) {
	var req autoDiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}

	var filters []storage.Filter
	if req.Pillar != "" {
		filters = append(filters, storage.Eq("pillar", string(req.Pillar)))
	}
	order := &storage.Order{Field: "created_at", Dir: storage.Desc}

	candidates, err := storage.QueryJSON[models.Insight](c.Request.Context(), s.store, storage.CollectionResearchInsights, req.UserID, filters, order, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	insights := make([]models.Insight, 0, limit)
	for _, insight := range candidates {
		if len(insights) >= limit {
			break
		}
		if req.Topic != "" && !strings.Contains(strings.ToLower(insight.Topic), strings.ToLower(req.Topic)) {
			continue
		}
		if len(req.Audiences) > 0 && !anyAudienceMatches(insight.Audiences, req.Audiences) {
			continue
		}
		insights = append(insights, insight)
	}
	ok(c, http.StatusOK, gin.H{"insights": insights})
}

func anyAudienceMatches(insightAudiences, requested []string) bool {
	want := make(map[string]bool, len(requested))
	for _, a := range requested {
		want[a] = true
	}
	for _, a := range insightAudiences {
		if want[a] {
			return true
		}
	}
	return false
}
