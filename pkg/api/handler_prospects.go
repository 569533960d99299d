package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// discoverProspectsRequest is POST /api/prospects/discover's body. Industry
// is accepted as a one-category shorthand for callers that don't think in
// terms of the discovery engine's category taxonomy.
type discoverProspectsRequest struct {
	UserID     string   `json:"user_id" binding:"required"`
	Industry   string   `json:"industry"`
	Categories []string `json:"categories"`
	Location   string   `json:"location"`
	MaxResults int      `json:"max_results"`
}

func (s *Server) discoverProspectsHandler(c *gin.Context) {
	var req discoverProspectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	categories := req.Categories
	if len(categories) == 0 && req.Industry != "" {
		categories = []string{req.Industry}
	}
	if len(categories) == 0 {
		badRequest(c, "categories or industry is required")
		return
	}

	result, err := s.discovery.Discover(c.Request.Context(), req.UserID, categories, req.Location, req.MaxResults)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, result)
}

// approveProspectsRequest is POST /api/prospects/approve's body.
type approveProspectsRequest struct {
	UserID         string                `json:"user_id" binding:"required"`
	ProspectIDs    []string              `json:"prospect_ids" binding:"required,min=1"`
	ApprovalStatus models.ApprovalStatus `json:"approval_status" binding:"required"`
}

func (s *Server) approveProspectsHandler(c *gin.Context) {
	var req approveProspectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	updated := make([]models.DiscoveredProspect, 0, len(req.ProspectIDs))
	for _, id := range req.ProspectIDs {
		var prospect models.DiscoveredProspect
		if err := storage.GetJSON(ctx, s.store, storage.CollectionProspects, req.UserID, id, &prospect); err != nil {
			respondError(c, err)
			return
		}
		prospect.ApprovalStatus = req.ApprovalStatus
		prospect.UpdatedAt = s.now()
		if err := storage.PutJSON(ctx, s.store, storage.CollectionProspects, req.UserID, id, &prospect); err != nil {
			respondError(c, err)
			return
		}
		updated = append(updated, prospect)
	}
	ok(c, http.StatusOK, gin.H{"prospects": updated})
}

// scoreProspectsRequest is POST /api/prospects/score's body.
type scoreProspectsRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	ProspectIDs []string `json:"prospect_ids" binding:"required,min=1"`
}

type prospectScoreResult struct {
	ProspectID string  `json:"prospect_id"`
	Score      float64 `json:"priority_score"`
}

func (s *Server) scoreProspectsHandler(c *gin.Context) {
	var req scoreProspectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	scores := make([]prospectScoreResult, 0, len(req.ProspectIDs))
	for _, id := range req.ProspectIDs {
		var prospect models.DiscoveredProspect
		if err := storage.GetJSON(ctx, s.store, storage.CollectionProspects, req.UserID, id, &prospect); err != nil {
			respondError(c, err)
			return
		}
		scores = append(scores, prospectScoreResult{ProspectID: id, Score: prospect.Scores.PriorityScore()})
	}
	ok(c, http.StatusOK, gin.H{"scores": scores})
}
