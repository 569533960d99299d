package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/outreach"
	"github.com/outreachforge/prospector/pkg/storage"
)

func (s *Server) loadProspects(c *gin.Context, userID string, ids []string) ([]models.DiscoveredProspect, bool) {
	ctx := c.Request.Context()
	out := make([]models.DiscoveredProspect, 0, len(ids))
	for _, id := range ids {
		var p models.DiscoveredProspect
		if err := storage.GetJSON(ctx, s.store, storage.CollectionProspects, userID, id, &p); err != nil {
			respondError(c, err)
			return nil, false
		}
		out = append(out, p)
	}
	return out, true
}

// segmentRequest is POST /api/outreach/segment's body.
type segmentRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	ProspectIDs []string `json:"prospect_ids" binding:"required,min=1"`
}

func (s *Server) segmentHandler(c *gin.Context) {
	var req segmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	prospects, ok2 := s.loadProspects(c, req.UserID, req.ProspectIDs)
	if !ok2 {
		return
	}

	assignments := outreach.AssignSegments(prospects, models.DefaultSegmentRatios)

	ctx := c.Request.Context()
	for i, p := range prospects {
		seg, found := assignments[p.ProspectID]
		if !found {
			continue
		}
		p.Segment = seg
		p.UpdatedAt = s.now()
		prospects[i] = p
		if err := storage.PutJSON(ctx, s.store, storage.CollectionProspects, req.UserID, p.ProspectID, &p); err != nil {
			respondError(c, err)
			return
		}
	}
	ok(c, http.StatusOK, gin.H{"segments": assignments})
}

// prioritizeRequest is POST /api/outreach/prioritize's body.
type prioritizeRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	ProspectIDs []string `json:"prospect_ids" binding:"required,min=1"`
	MinScore    float64  `json:"min_score"`
}

func (s *Server) prioritizeHandler(c *gin.Context) {
	var req prioritizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	prospects, ok2 := s.loadProspects(c, req.UserID, req.ProspectIDs)
	if !ok2 {
		return
	}
	ok(c, http.StatusOK, gin.H{"prioritized": outreach.Prioritize(prospects, req.MinScore)})
}

// generateSequenceRequest is POST /api/outreach/sequence/generate's body.
type generateSequenceRequest struct {
	UserID        string              `json:"user_id" binding:"required"`
	ProspectID    string              `json:"prospect_id" binding:"required"`
	SequenceType  models.SequenceType `json:"sequence_type" binding:"required"`
	Segment       models.Segment      `json:"segment"`
	OutreachAngle string              `json:"outreach_angle"`
}

func (s *Server) generateSequenceHandler(c *gin.Context) {
	var req generateSequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	prospects, ok2 := s.loadProspects(c, req.UserID, []string{req.ProspectID})
	if !ok2 {
		return
	}

	segment := req.Segment
	if segment == "" {
		segment = prospects[0].Segment
	}
	sequence := outreach.Generate(s.clock, prospects[0], req.SequenceType, segment, req.OutreachAngle)
	sequence.UserID = req.UserID

	if err := storage.PutJSON(c.Request.Context(), s.store, storage.CollectionOutreachSequences, req.UserID, sequence.SequenceID, &sequence); err != nil {
		respondError(c, err)
		return
	}
	ok(c, http.StatusOK, sequence)
}

// weeklyCadenceRequest is POST /api/outreach/cadence/weekly's body. When
// SequenceIDs is empty, every sequence on record for the user feeds the
// cadence build.
type weeklyCadenceRequest struct {
	UserID                   string    `json:"user_id" binding:"required"`
	WeekStart                time.Time `json:"week_start" binding:"required"`
	SequenceIDs              []string  `json:"sequence_ids"`
	TargetConnectionRequests int       `json:"target_connection_requests"`
	TargetFollowups          int       `json:"target_followups"`
}

func (s *Server) weeklyCadenceHandler(c *gin.Context) {
	var req weeklyCadenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	var sequences []models.OutreachSequence
	if len(req.SequenceIDs) > 0 {
		for _, id := range req.SequenceIDs {
			var seq models.OutreachSequence
			if err := storage.GetJSON(ctx, s.store, storage.CollectionOutreachSequences, req.UserID, id, &seq); err != nil {
				respondError(c, err)
				return
			}
			sequences = append(sequences, seq)
		}
	} else {
		all, err := storage.QueryJSON[models.OutreachSequence](ctx, s.store, storage.CollectionOutreachSequences, req.UserID, nil, nil, 0)
		if err != nil {
			respondError(c, err)
			return
		}
		sequences = all
	}

	targets := outreach.CadenceTargets{TargetConnectionRequests: req.TargetConnectionRequests, TargetFollowups: req.TargetFollowups}
	entries := outreach.BuildCadence(req.UserID, req.WeekStart, sequences, targets)
	ok(c, http.StatusOK, gin.H{"cadence": entries})
}

// trackEngagementRequest is POST /api/outreach/track-engagement's body.
type trackEngagementRequest struct {
	UserID       string               `json:"user_id" binding:"required"`
	ProspectID   string               `json:"prospect_id" binding:"required"`
	SequenceID   string               `json:"sequence_id"`
	OutreachType string               `json:"outreach_type" binding:"required"`
	Status       models.StepState     `json:"status" binding:"required"`
	MessageID    string               `json:"message_id"`
	ResponseType models.ResponseType  `json:"response_type"`
}

func (s *Server) trackEngagementHandler(c *gin.Context) {
	var req trackEngagementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	update := outreach.EngagementUpdate{
		ProspectID:   req.ProspectID,
		SequenceID:   req.SequenceID,
		OutreachType: req.OutreachType,
		Status:       req.Status,
		MessageID:    req.MessageID,
		ResponseType: req.ResponseType,
	}
	metric, err := s.outreachTracker.TrackEngagement(c.Request.Context(), req.UserID, update)
	if err != nil {
		if metric == nil {
			respondError(c, err)
			return
		}
		slog.Warn("engagement recorded despite downstream failure", "user_id", req.UserID, "prospect_id", req.ProspectID, "error", err)
	}
	ok(c, http.StatusOK, metric)
}

// outreachMetricsRequest is POST /api/outreach/metrics's body.
type outreachMetricsRequest struct {
	UserID      string   `json:"user_id" binding:"required"`
	ProspectIDs []string `json:"prospect_ids" binding:"required,min=1"`
}

func (s *Server) outreachMetricsHandler(c *gin.Context) {
	var req outreachMetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	metrics := make([]models.ProspectMetric, 0, len(req.ProspectIDs))
	for _, id := range req.ProspectIDs {
		var m models.ProspectMetric
		if err := storage.GetJSON(ctx, s.store, storage.CollectionProspectMetrics, req.UserID, id, &m); err != nil {
			respondError(c, err)
			return
		}
		metrics = append(metrics, m)
	}
	ok(c, http.StatusOK, gin.H{"metrics": metrics})
}
