// Package scheduler implements §4.8: periodic replay of scheduled research
// topics and the weekly summary cron, grounded on jarvis's
// internal/automation FlowEngine ticker-driven polling loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// ResearchRunner is the §4.2 workflow the scheduler replays per topic.
type ResearchRunner interface {
	CompleteWorkflow(ctx context.Context, userID, topic string, pillar models.Pillar, industry string) (*models.Insight, error)
}

// ReportRunner is the §4.5 weekly report generator.
type ReportRunner interface {
	GenerateWeeklyReport(ctx context.Context, userID string, weekStart time.Time) (*models.WeeklyReport, error)
}

// ReportPublisher is notified when a weekly report is produced by the cron,
// mirroring the narrow ActivityPublisher seams the other engines use.
type ReportPublisher interface {
	Publish(ctx context.Context, event models.ActivityEvent) error
}

// topicStagger is the pause between topics within one RunScheduled call, so
// a plan with many topics doesn't burst the provider semaphores all at once.
const topicStagger = 2 * time.Second

// weeklyReportStaleness is how old a user's last report must be before
// RunWeeklyReports regenerates it.
const weeklyReportStaleness = 6 * 24 * time.Hour

// Scheduler owns the ticker-driven polling loop that replays scheduled
// research topics and the weekly-report cron. Both are also callable
// directly (RunScheduled/RunWeeklyReports) for on-demand or test use.
type Scheduler struct {
	Store     storage.Store
	Research  ResearchRunner
	Reports   ReportRunner
	Activity  ReportPublisher
	Clock     clock.Clock
	Interval  time.Duration

	cancel context.CancelFunc
}

func (s *Scheduler) now() time.Time {
	if s.Clock != nil {
		return s.Clock.Now()
	}
	return time.Now()
}

func (s *Scheduler) interval() time.Duration {
	if s.Interval > 0 {
		return s.Interval
	}
	return time.Hour
}

// Start runs the polling loop in a background goroutine until Stop is
// called. Each tick runs RunWeeklyReports once and RunScheduled once per
// frequency class across every user.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go func() {
		ticker := time.NewTicker(s.interval())
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick(ctx)
			}
		}
	}()
}

// Stop cancels the polling loop. Safe to call even if Start was never
// called.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	for _, freq := range []models.ScheduledTopicFrequency{models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyMonthly} {
		if err := s.RunScheduled(ctx, "", freq); err != nil {
			slog.Error("scheduled topic replay failed", "frequency", freq, "error", err)
		}
	}
	if err := s.RunWeeklyReports(ctx, s.now()); err != nil {
		slog.Error("weekly report cron failed", "error", err)
	}
}

// ScheduleTopics stores a plan for userID to replay topics at the given
// frequency, tagged with pillar. NextDueAt is set to now so the plan's
// first run fires on the next RunScheduled call for its frequency.
func (s *Scheduler) ScheduleTopics(ctx context.Context, userID string, topics []string, frequency models.ScheduledTopicFrequency, pillar models.Pillar) (*models.ScheduledTopic, error) {
	now := s.now()
	plan := &models.ScheduledTopic{
		PlanID:    uuid.NewString(),
		UserID:    userID,
		Topics:    topics,
		Frequency: frequency,
		Pillar:    pillar,
		NextDueAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := storage.PutJSON(ctx, s.Store, storage.CollectionScheduledTopics, userID, plan.PlanID, plan); err != nil {
		return nil, fmt.Errorf("saving scheduled topic plan: %w", err)
	}
	return plan, nil
}

// RunScheduled enumerates every plan of the given frequency whose
// NextDueAt has elapsed (scoped to userID when non-empty, otherwise across
// all tenants) and replays §4.2's CompleteWorkflow for each of its topics,
// staggered by topicStagger to respect provider budgets. Returns the count
// of topics run.
func (s *Scheduler) RunScheduled(ctx context.Context, userID string, frequency models.ScheduledTopicFrequency) (int, error) {
	now := s.now()
	filters := []storage.Filter{storage.Eq("frequency", string(frequency))}

	var plans []models.ScheduledTopic
	var err error
	if userID != "" {
		plans, err = storage.QueryJSON[models.ScheduledTopic](ctx, s.Store, storage.CollectionScheduledTopics, userID, filters, nil, 0)
	} else {
		plans, err = storage.QueryJSONAllUsers[models.ScheduledTopic](ctx, s.Store, storage.CollectionScheduledTopics, filters, nil, 0)
	}
	if err != nil {
		return 0, fmt.Errorf("loading scheduled topic plans: %w", err)
	}

	var ran int
	for _, plan := range plans {
		if plan.NextDueAt.After(now) {
			continue
		}
		for i, topic := range plan.Topics {
			if i > 0 {
				time.Sleep(topicStagger)
			}
			if ctx.Err() != nil {
				return ran, ctx.Err()
			}
			if _, err := s.Research.CompleteWorkflow(ctx, plan.UserID, topic, plan.Pillar, ""); err != nil {
				slog.Error("scheduled topic research failed", "plan_id", plan.PlanID, "topic", topic, "error", err)
				continue
			}
			ran++
		}
		plan.LastRunAt = now
		plan.NextDueAt = nextDueAt(now, plan.Frequency)
		plan.UpdatedAt = now
		if err := storage.PutJSON(ctx, s.Store, storage.CollectionScheduledTopics, plan.UserID, plan.PlanID, &plan); err != nil {
			slog.Error("failed to advance scheduled topic plan", "plan_id", plan.PlanID, "error", err)
		}
	}
	return ran, nil
}

// RunWeeklyReports generates §4.5's weekly report for every user whose
// last-report timestamp is older than 6 days, tracked via a per-user cursor
// document in the scheduled_topics collection's sibling weekly_report_cursors
// shape (one document per user, id="cursor").
func (s *Scheduler) RunWeeklyReports(ctx context.Context, now time.Time) error {
	cursors, err := storage.QueryJSONAllUsers[reportCursor](ctx, s.Store, collectionReportCursors, nil, nil, 0)
	if err != nil {
		return fmt.Errorf("loading weekly report cursors: %w", err)
	}
	seen := make(map[string]reportCursor, len(cursors))
	for _, c := range cursors {
		seen[c.UserID] = c
	}

	users, err := knownUsers(ctx, s.Store)
	if err != nil {
		return fmt.Errorf("enumerating users: %w", err)
	}

	for _, userID := range users {
		cursor, ok := seen[userID]
		if ok && now.Sub(cursor.LastReportAt) < weeklyReportStaleness {
			continue
		}
		weekStart := now.AddDate(0, 0, -7)
		report, err := s.Reports.GenerateWeeklyReport(ctx, userID, weekStart)
		if err != nil {
			slog.Error("weekly report generation failed", "user_id", userID, "error", err)
			continue
		}
		if s.Activity != nil {
			_ = s.Activity.Publish(ctx, models.ActivityEvent{
				UserID:  userID,
				Type:    models.ActivityAutomation,
				Title:   "weekly report ready",
				Message: fmt.Sprintf("%d posts, %.2f avg engagement", report.TotalPosts, report.AvgEngagementRate),
			})
		}
		cursor = reportCursor{UserID: userID, LastReportAt: now}
		if err := storage.PutJSON(ctx, s.Store, collectionReportCursors, userID, "cursor", &cursor); err != nil {
			slog.Error("failed to advance weekly report cursor", "user_id", userID, "error", err)
		}
	}
	return nil
}

// collectionReportCursors tracks the last-report timestamp per user so
// RunWeeklyReports can tell who is due without recomputing every report on
// every tick.
const collectionReportCursors = "weekly_report_cursors"

type reportCursor struct {
	UserID       string    `json:"user_id"`
	LastReportAt time.Time `json:"last_report_at"`
}

// knownUsers enumerates every user with at least one scheduled topic plan
// or content metric — the set the weekly cron considers "active". A
// dedicated user registry is out of scope (§1 Non-goals place auth/identity
// outside the core); this derives membership from data the core already
// owns.
func knownUsers(ctx context.Context, s storage.Store) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, collection := range []string{storage.CollectionScheduledTopics, storage.CollectionContentMetrics, storage.CollectionProspectMetrics} {
		docs, err := s.QueryAllUsers(ctx, collection, nil, nil, 0)
		if err != nil {
			return nil, err
		}
		for _, d := range docs {
			if !seen[d.UserID] {
				seen[d.UserID] = true
				out = append(out, d.UserID)
			}
		}
	}
	return out, nil
}

func nextDueAt(from time.Time, freq models.ScheduledTopicFrequency) time.Time {
	switch freq {
	case models.FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case models.FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	default:
		return from.AddDate(0, 0, 1)
	}
}
