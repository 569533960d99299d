// Package learning implements the Learning & Metrics Core (§4.5): metrics
// ingestion with server-side recomputation, pattern updates, weekly
// reports, and the content auto-linking hook (§4.6).
package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// Core bundles the Learning & Metrics Core's storage dependency.
type Core struct {
	Store storage.Store
	Clock clock.Clock
}

func (c *Core) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now()
	}
	return time.Now()
}

// RecordContentMetric ingests a ContentMetric, ignoring any client-supplied
// engagement_rate and recomputing it server-side from Metrics.
func (c *Core) RecordContentMetric(ctx context.Context, userID string, metric models.ContentMetric) error {
	metric.UserID = userID
	metric.EngagementRate = models.ComputeEngagementRate(metric.Metrics)
	if metric.CreatedAt.IsZero() {
		metric.CreatedAt = c.now()
	}
	if err := storage.PutJSON(ctx, c.Store, storage.CollectionContentMetrics, userID, metric.ContentID, &metric); err != nil {
		return fmt.Errorf("saving content metric: %w", err)
	}
	return nil
}

// RecordEngagement implements outreach.LearningUpdater: it just persists the
// already-derived ProspectMetric (reply_rate/meeting_rate are computed from
// its methods at read time, never stored).
func (c *Core) RecordEngagement(ctx context.Context, userID string, metric models.ProspectMetric) error {
	if err := storage.PutJSON(ctx, c.Store, storage.CollectionProspectMetrics, userID, metric.ProspectID, &metric); err != nil {
		return fmt.Errorf("recording engagement: %w", err)
	}
	return nil
}
