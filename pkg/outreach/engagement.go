package outreach

import (
	"context"
	"fmt"
	"time"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// LearningUpdater is the narrow surface the engagement tracker needs from
// the Learning Core; a failure here must never roll back the engagement
// write, only be logged.
type LearningUpdater interface {
	RecordEngagement(ctx context.Context, userID string, metric models.ProspectMetric) error
}

// Tracker drives trackEngagement: it mutates a ProspectMetric, advances the
// owning sequence's current_step on send, and forwards an update to the
// Learning Core, tolerating its failure.
type Tracker struct {
	Store    storage.Store
	Learning LearningUpdater
	Clock    clock.Clock
}

func (t *Tracker) now() time.Time {
	if t.Clock != nil {
		return t.Clock.Now()
	}
	return time.Now()
}

// EngagementUpdate carries one observed outreach event.
type EngagementUpdate struct {
	ProspectID   string
	SequenceID   string
	OutreachType string // connection_request | dm | meeting
	Status       models.StepState
	MessageID    string
	ResponseType models.ResponseType
}

// TrackEngagement applies update to the prospect's ProspectMetric
// (idempotent per (message_id, status)), advances the sequence step when
// status=sent, and forwards to the Learning Core without rolling back on a
// learning-update failure.
func (t *Tracker) TrackEngagement(ctx context.Context, userID string, update EngagementUpdate) (*models.ProspectMetric, error) {
	metric, err := t.loadOrCreateMetric(ctx, userID, update.ProspectID, update.SequenceID)
	if err != nil {
		return nil, fmt.Errorf("loading prospect metric: %w", err)
	}

	t.applyUpdate(metric, update)
	metric.UpdatedAt = t.now()

	if err := storage.PutJSON(ctx, t.Store, storage.CollectionProspectMetrics, userID, metric.ProspectID, metric); err != nil {
		return nil, fmt.Errorf("saving prospect metric: %w", err)
	}

	if update.Status == models.StepSent {
		if err := t.advanceSequenceStep(ctx, userID, update.SequenceID); err != nil {
			return metric, fmt.Errorf("advancing sequence step: %w", err)
		}
	}

	if t.Learning != nil {
		if err := t.Learning.RecordEngagement(ctx, userID, *metric); err != nil {
			// The engagement write already committed; a learning-update
			// failure is logged by the caller, not rolled back.
			return metric, fmt.Errorf("learning update failed (engagement still recorded): %w", err)
		}
	}

	return metric, nil
}

func (t *Tracker) loadOrCreateMetric(ctx context.Context, userID, prospectID, sequenceID string) (*models.ProspectMetric, error) {
	var metric models.ProspectMetric
	err := storage.GetJSON(ctx, t.Store, storage.CollectionProspectMetrics, userID, prospectID, &metric)
	if err == nil {
		return &metric, nil
	}
	if _, ok := err.(*storage.ErrNotFound); !ok {
		return nil, err
	}
	return &models.ProspectMetric{
		ProspectID: prospectID,
		SequenceID: sequenceID,
		UserID:     userID,
		CreatedAt:  t.now(),
	}, nil
}

func (t *Tracker) applyUpdate(metric *models.ProspectMetric, update EngagementUpdate) {
	switch update.OutreachType {
	case "connection_request":
		switch update.Status {
		case models.StepSent:
			metric.ConnectionRequestSent = true
		case models.StepReplied, models.StepOpened:
			metric.ConnectionAccepted = true
		}
	case "dm":
		t.applyDM(metric, update)
	case "meeting":
		if update.Status == models.StepMeetingBooked {
			metric.MeetingsBooked = append(metric.MeetingsBooked, t.now())
		}
	}
}

func (t *Tracker) applyDM(metric *models.ProspectMetric, update EngagementUpdate) {
	for i, dm := range metric.DMsSent {
		if dm.MessageID == update.MessageID {
			// idempotent per (message_id, status): re-applying the same
			// status is a no-op.
			if update.Status == models.StepReplied && dm.ResponseType != update.ResponseType {
				now := t.now()
				metric.DMsSent[i].ResponseReceivedAt = &now
				metric.DMsSent[i].ResponseType = update.ResponseType
			}
			return
		}
	}
	if update.Status != models.StepSent {
		return
	}
	metric.DMsSent = append(metric.DMsSent, models.DMRecord{
		MessageID: update.MessageID,
		SentAt:    t.now(),
	})
}

func (t *Tracker) advanceSequenceStep(ctx context.Context, userID, sequenceID string) error {
	results, err := storage.QueryJSON[models.OutreachSequence](ctx, t.Store, storage.CollectionOutreachSequences, userID,
		[]storage.Filter{storage.Eq("sequence_id", sequenceID)}, nil, 1)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}
	seq := results[0]
	if seq.CurrentStep < len(seq.Steps) {
		seq.Steps[seq.CurrentStep].State = models.StepSent
		seq.CurrentStep++
	}
	seq.UpdatedAt = t.now()
	return storage.PutJSON(ctx, t.Store, storage.CollectionOutreachSequences, userID, seq.SequenceID, &seq)
}
