package scheduler_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/scheduler"
	"github.com/outreachforge/prospector/pkg/storage"
)

type fakeResearch struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeResearch) CompleteWorkflow(_ context.Context, userID, topic string, _ models.Pillar, _ string) (*models.Insight, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userID+"/"+topic)
	return &models.Insight{UserID: userID, Topic: topic}, nil
}

func (f *fakeResearch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeReports struct {
	calls int
}

func (f *fakeReports) GenerateWeeklyReport(_ context.Context, userID string, weekStart time.Time) (*models.WeeklyReport, error) {
	f.calls++
	return &models.WeeklyReport{UserID: userID, WeekStart: weekStart, TotalPosts: 3, AvgEngagementRate: 5.5}, nil
}

type noopActivity struct{}

func (noopActivity) Publish(context.Context, models.ActivityEvent) error { return nil }

func TestRunScheduled_RunsDueTopicsAndAdvancesNextDueAt(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	research := &fakeResearch{}
	s := &scheduler.Scheduler{Store: store, Research: research, Clock: clock.Frozen{At: now}}

	plan, err := s.ScheduleTopics(context.Background(), "u1", []string{"topic a", "topic b"}, models.FrequencyDaily, models.PillarReferral)
	require.NoError(t, err)

	ran, err := s.RunScheduled(context.Background(), "", models.FrequencyDaily)
	require.NoError(t, err)
	assert.Equal(t, 2, ran)
	assert.Equal(t, 2, research.callCount())

	var stored models.ScheduledTopic
	require.NoError(t, storage.GetJSON(context.Background(), store, storage.CollectionScheduledTopics, "u1", plan.PlanID, &stored))
	assert.Equal(t, now.AddDate(0, 0, 1), stored.NextDueAt)
	assert.Equal(t, now, stored.LastRunAt)
}

func TestRunScheduled_SkipsPlansNotYetDue(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	research := &fakeResearch{}
	s := &scheduler.Scheduler{Store: store, Research: research, Clock: clock.Frozen{At: now}}

	plan := models.ScheduledTopic{PlanID: "p1", UserID: "u1", Topics: []string{"x"}, Frequency: models.FrequencyWeekly,
		NextDueAt: now.AddDate(0, 0, 3)}
	require.NoError(t, storage.PutJSON(context.Background(), store, storage.CollectionScheduledTopics, "u1", "p1", &plan))

	ran, err := s.RunScheduled(context.Background(), "", models.FrequencyWeekly)
	require.NoError(t, err)
	assert.Equal(t, 0, ran)
	assert.Equal(t, 0, research.callCount())
}

func TestRunWeeklyReports_OnlyRunsForStaleUsers(t *testing.T) {
	store := storage.NewMemoryStore()
	now := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	reports := &fakeReports{}
	s := &scheduler.Scheduler{Store: store, Reports: reports, Activity: noopActivity{}, Clock: clock.Frozen{At: now}}

	metric := models.ContentMetric{ContentID: "c1", Pillar: models.PillarReferral, CreatedAt: now}
	require.NoError(t, storage.PutJSON(context.Background(), store, storage.CollectionContentMetrics, "u1", "c1", &metric))
	require.NoError(t, storage.PutJSON(context.Background(), store, storage.CollectionContentMetrics, "u2", "c2", &metric))

	require.NoError(t, s.RunWeeklyReports(context.Background(), now))
	assert.Equal(t, 2, reports.calls)

	// Running again immediately is a no-op: neither user's cursor is stale yet.
	require.NoError(t, s.RunWeeklyReports(context.Background(), now.Add(time.Hour)))
	assert.Equal(t, 2, reports.calls)

	// After 6+ days, both users are due again.
	require.NoError(t, s.RunWeeklyReports(context.Background(), now.AddDate(0, 0, 7)))
	assert.Equal(t, 4, reports.calls)
}
