package learning_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/learning"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

func TestRecordContentMetric_IgnoresClientEngagementRate(t *testing.T) {
	store := storage.NewMemoryStore()
	core := &learning.Core{Store: store, Clock: clock.Real{}}

	metric := models.ContentMetric{
		ContentID:      "c1",
		Pillar:         models.PillarThoughtLeadership,
		Metrics:        models.ContentMetricCounts{Likes: 10, Comments: 5, Shares: 1, Impressions: 200},
		EngagementRate: 9999, // should be ignored
	}
	require.NoError(t, core.RecordContentMetric(context.Background(), "user-1", metric))

	var stored models.ContentMetric
	require.NoError(t, storage.GetJSON(context.Background(), store, storage.CollectionContentMetrics, "user-1", "c1", &stored))
	assert.Equal(t, 8.0, stored.EngagementRate) // (10+5+1)/200*100 = 8.0
}

func TestUpdateLearningPatterns_IdempotentForSameWindow(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	core := &learning.Core{Store: store, Clock: clock.Frozen{At: now}}

	metric := models.ContentMetric{
		ContentID:   "c1",
		Pillar:      models.PillarReferral,
		Metrics:     models.ContentMetricCounts{Likes: 10, Impressions: 100},
		TopHashtags: []string{"edtech"},
		CreatedAt:   now.Add(-time.Hour),
	}
	require.NoError(t, core.RecordContentMetric(context.Background(), "user-1", metric))

	require.NoError(t, core.UpdateLearningPatterns(context.Background(), "user-1", nil, 30*24*time.Hour))
	first, err := storage.QueryJSON[models.LearningPattern](context.Background(), store, storage.CollectionLearningPatterns, "user-1", nil, nil, 0)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	require.NoError(t, core.UpdateLearningPatterns(context.Background(), "user-1", nil, 30*24*time.Hour))
	second, err := storage.QueryJSON[models.LearningPattern](context.Background(), store, storage.CollectionLearningPatterns, "user-1", nil, nil, 0)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].AveragePerformance, second[i].AveragePerformance)
		assert.Len(t, second[i].PerformanceHistory, 1) // re-running same window replaces, not duplicates
	}
}

func TestGenerateWeeklyReport_ComputesTotalsAndBestPillar(t *testing.T) {
	store := storage.NewMemoryStore()
	weekStart := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	core := &learning.Core{Store: store, Clock: clock.Frozen{At: weekStart.AddDate(0, 0, 3)}}

	metrics := []models.ContentMetric{
		{ContentID: "c1", Pillar: models.PillarReferral, Metrics: models.ContentMetricCounts{Likes: 20, Impressions: 100}, TopHashtags: []string{"counseling"}, CreatedAt: weekStart.AddDate(0, 0, 1)},
		{ContentID: "c2", Pillar: models.PillarThoughtLeadership, Metrics: models.ContentMetricCounts{Likes: 5, Impressions: 100}, TopHashtags: []string{"ai"}, CreatedAt: weekStart.AddDate(0, 0, 2)},
	}
	for _, m := range metrics {
		require.NoError(t, core.RecordContentMetric(context.Background(), "user-1", m))
	}

	report, err := core.GenerateWeeklyReport(context.Background(), "user-1", weekStart)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalPosts)
	assert.Equal(t, models.PillarReferral, report.BestPillar)
	assert.Contains(t, report.TopHashtags, "counseling")
}

func TestAutoLinkInsights_ExplicitOverridesAutoDiscovery(t *testing.T) {
	store := storage.NewMemoryStore()
	core := &learning.Core{Store: store, Clock: clock.Real{}}

	ids, err := core.AutoLinkInsights(context.Background(), "user-1", models.PillarReferral, "topic", []string{"explicit-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"explicit-1"}, ids)
}

func TestAutoLinkInsights_FiltersByPillarAndTagIntersection(t *testing.T) {
	store := storage.NewMemoryStore()
	core := &learning.Core{Store: store, Clock: clock.Real{}}

	insights := []models.Insight{
		{InsightID: "i1", Pillar: models.PillarReferral, Tags: []string{"counseling", "schools"}, Engagement: models.EngagementSignals{RelevanceScore: 0.9}},
		{InsightID: "i2", Pillar: models.PillarReferral, Tags: []string{"unrelated"}, Engagement: models.EngagementSignals{RelevanceScore: 0.95}},
		{InsightID: "i3", Pillar: models.PillarThoughtLeadership, Tags: []string{"schools"}, Engagement: models.EngagementSignals{RelevanceScore: 0.99}},
	}
	for _, ins := range insights {
		require.NoError(t, storage.PutJSON(context.Background(), store, storage.CollectionResearchInsights, "user-1", ins.InsightID, &ins))
	}

	ids, err := core.AutoLinkInsights(context.Background(), "user-1", models.PillarReferral, "schools counseling", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"i1"}, ids)
}
