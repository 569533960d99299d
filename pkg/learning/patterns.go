package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

const defaultWindow = 30 * 24 * time.Hour

type sample struct {
	value   float64
	variant string
}

// UpdateLearningPatterns scans the window's metrics, groups by pattern_key,
// and upserts each group's LearningPattern. If patternType is nil, every
// pattern type is recomputed. Writes are idempotent: two calls over the same
// window with unchanged underlying metrics produce byte-identical documents
// (average_performance and sample_size are pure functions of the scanned
// metrics, not of wall-clock time).
func (c *Core) UpdateLearningPatterns(ctx context.Context, userID string, patternType *models.PatternType, window time.Duration) error {
	if window <= 0 {
		window = defaultWindow
	}
	windowStart := c.now().Add(-window)

	types := []models.PatternType{
		models.PatternContentPillar,
		models.PatternHashtag,
		models.PatternTopic,
		models.PatternOutreachSequence,
		models.PatternAudienceSegment,
	}
	if patternType != nil {
		types = []models.PatternType{*patternType}
	}

	for _, pt := range types {
		groups, metric, err := c.collectGroups(ctx, userID, pt, windowStart)
		if err != nil {
			return fmt.Errorf("collecting %s groups: %w", pt, err)
		}
		for key, samples := range groups {
			if err := c.upsertPattern(ctx, userID, pt, key, metric, samples, windowStart); err != nil {
				return fmt.Errorf("upserting pattern %s/%s: %w", pt, key, err)
			}
		}
	}
	return nil
}

func (c *Core) collectGroups(ctx context.Context, userID string, pt models.PatternType, windowStart time.Time) (map[string][]sample, models.SuccessMetric, error) {
	switch pt {
	case models.PatternContentPillar, models.PatternHashtag, models.PatternAudienceSegment, models.PatternTopic:
		metrics, err := storage.QueryJSON[models.ContentMetric](ctx, c.Store, storage.CollectionContentMetrics, userID, nil, nil, 0)
		if err != nil {
			return nil, "", err
		}
		groups := map[string][]sample{}
		for _, m := range metrics {
			if m.CreatedAt.Before(windowStart) {
				continue
			}
			switch pt {
			case models.PatternContentPillar:
				groups[string(m.Pillar)] = append(groups[string(m.Pillar)], sample{value: m.EngagementRate, variant: m.ContentID})
			case models.PatternHashtag:
				for _, h := range m.TopHashtags {
					groups[h] = append(groups[h], sample{value: m.EngagementRate, variant: h})
				}
			case models.PatternAudienceSegment:
				for _, seg := range m.AudienceSegment {
					groups[seg] = append(groups[seg], sample{value: m.EngagementRate, variant: m.ContentID})
				}
			case models.PatternTopic:
				draft, ok := c.lookupDraft(ctx, userID, m.ContentID)
				if !ok || draft.Topic == "" {
					continue
				}
				groups[draft.Topic] = append(groups[draft.Topic], sample{value: m.EngagementRate, variant: m.ContentID})
			}
		}
		return groups, models.MetricEngagementRate, nil

	case models.PatternOutreachSequence:
		metrics, err := storage.QueryJSON[models.ProspectMetric](ctx, c.Store, storage.CollectionProspectMetrics, userID, nil, nil, 0)
		if err != nil {
			return nil, "", err
		}
		groups := map[string][]sample{}
		for _, m := range metrics {
			if m.UpdatedAt.Before(windowStart) {
				continue
			}
			groups[m.SequenceID] = append(groups[m.SequenceID], sample{value: m.ReplyRate(), variant: m.ProspectID})
		}
		return groups, models.MetricReplyRate, nil
	}
	return nil, "", fmt.Errorf("unknown pattern type %q", pt)
}

func (c *Core) lookupDraft(ctx context.Context, userID, contentID string) (models.ContentDraft, bool) {
	var draft models.ContentDraft
	if err := storage.GetJSON(ctx, c.Store, storage.CollectionContentDrafts, userID, contentID, &draft); err != nil {
		return models.ContentDraft{}, false
	}
	return draft, true
}

func (c *Core) upsertPattern(ctx context.Context, userID string, pt models.PatternType, key string, metric models.SuccessMetric, samples []sample, windowStart time.Time) error {
	existing, found := c.findPattern(ctx, userID, pt, key)

	var sum float64
	best := samples[0]
	for _, s := range samples {
		sum += s.value
		if s.value > best.value {
			best = s
		}
	}
	average := roundTo2(sum / float64(len(samples)))

	pattern := existing
	if !found {
		pattern = models.LearningPattern{
			UserID:     userID,
			PatternID:  uuid.NewString(),
			PatternType: pt,
			PatternKey: key,
		}
	}
	pattern.SuccessMetric = metric
	pattern.AveragePerformance = average
	pattern.BestPerformanceVariant = best.variant
	pattern.SampleSize = len(samples)
	pattern.PerformanceHistory = appendHistory(pattern.PerformanceHistory, models.PerformanceSample{WindowStart: windowStart, Average: average}, models.DefaultPerformanceHistoryLimit)
	pattern.LastUpdated = c.now()

	return storage.PutJSON(ctx, c.Store, storage.CollectionLearningPatterns, userID, pattern.PatternID, &pattern)
}

func (c *Core) findPattern(ctx context.Context, userID string, pt models.PatternType, key string) (models.LearningPattern, bool) {
	results, err := storage.QueryJSON[models.LearningPattern](ctx, c.Store, storage.CollectionLearningPatterns, userID,
		[]storage.Filter{storage.Eq("pattern_type", string(pt)), storage.Eq("pattern_key", key)}, nil, 1)
	if err != nil || len(results) == 0 {
		return models.LearningPattern{}, false
	}
	return results[0], true
}

// appendHistory appends sample to history, replacing an entry with the same
// window_start (idempotency) rather than duplicating it, and caps the
// result at limit entries (oldest dropped first).
func appendHistory(history []models.PerformanceSample, sample models.PerformanceSample, limit int) []models.PerformanceSample {
	for i, h := range history {
		if h.WindowStart.Equal(sample.WindowStart) {
			history[i] = sample
			return history
		}
	}
	history = append(history, sample)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

func roundTo2(f float64) float64 {
	return float64(int64(f*100+0.5)) / 100
}
