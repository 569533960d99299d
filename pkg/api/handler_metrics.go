package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// updateContentMetricRequest is POST /api/metrics/enhanced/content/update's
// body. EngagementRate is accepted on the wire but always recomputed
// server-side, per §4.5 — a client-supplied value is never trusted.
type updateContentMetricRequest struct {
	UserID string               `json:"user_id" binding:"required"`
	Metric models.ContentMetric `json:"metric" binding:"required"`
}

func (s *Server) updateContentMetricHandler(c *gin.Context) {
	var req updateContentMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.Metric.UserID = req.UserID
	req.Metric.EngagementRate = models.ComputeEngagementRate(req.Metric.Metrics)

	if err := s.learning.RecordContentMetric(c.Request.Context(), req.UserID, req.Metric); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, req.Metric)
}

// updateProspectMetricRequest is POST /api/metrics/enhanced/prospects/update's
// body.
type updateProspectMetricRequest struct {
	UserID string                `json:"user_id" binding:"required"`
	Metric models.ProspectMetric `json:"metric" binding:"required"`
}

func (s *Server) updateProspectMetricHandler(c *gin.Context) {
	var req updateProspectMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.Metric.UserID = req.UserID

	if err := s.learning.RecordEngagement(c.Request.Context(), req.UserID, req.Metric); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, req.Metric)
}

// updatePatternsRequest is POST /api/metrics/enhanced/learning/update-patterns's
// body.
type updatePatternsRequest struct {
	UserID        string             `json:"user_id" binding:"required"`
	PatternType   *models.PatternType `json:"pattern_type"`
	WindowSeconds int                `json:"window_seconds"`
}

func (s *Server) updatePatternsHandler(c *gin.Context) {
	var req updatePatternsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	window := 7 * 24 * time.Hour
	if req.WindowSeconds > 0 {
		window = time.Duration(req.WindowSeconds) * time.Second
	}

	if err := s.learning.UpdateLearningPatterns(c.Request.Context(), req.UserID, req.PatternType, window); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"updated": true})
}

func (s *Server) listPatternsHandler(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		badRequest(c, "user_id is required")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "limit must be an integer")
			return
		}
		limit = n
	}

	var filters []storage.Filter
	if pt := c.Query("pattern_type"); pt != "" {
		filters = append(filters, storage.Eq("pattern_type", pt))
	}

	patterns, err := storage.QueryJSON[models.LearningPattern](c.Request.Context(), s.store, storage.CollectionLearningPatterns, userID, filters, nil, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"patterns": patterns})
}

// weeklyReportRequest is POST /api/metrics/enhanced/weekly-report's body.
type weeklyReportRequest struct {
	UserID    string    `json:"user_id" binding:"required"`
	WeekStart time.Time `json:"week_start" binding:"required"`
}

func (s *Server) weeklyReportHandler(c *gin.Context) {
	var req weeklyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	report, err := s.learning.GenerateWeeklyReport(c.Request.Context(), req.UserID, req.WeekStart)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, report)
}
