package models

import "time"

// PatternType is the axis a LearningPattern aggregates performance over.
type PatternType string

const (
	PatternContentPillar    PatternType = "content_pillar"
	PatternHashtag          PatternType = "hashtag"
	PatternTopic            PatternType = "topic"
	PatternOutreachSequence PatternType = "outreach_sequence"
	PatternAudienceSegment  PatternType = "audience_segment"
)

// SuccessMetric names which derived rate a pattern is measuring.
type SuccessMetric string

const (
	MetricEngagementRate SuccessMetric = "engagement_rate"
	MetricReplyRate      SuccessMetric = "reply_rate"
	MetricMeetingRate    SuccessMetric = "meeting_rate"
)

// DefaultPerformanceHistoryLimit bounds performance_history; the oldest
// entries are dropped once the window fills.
const DefaultPerformanceHistoryLimit = 12

// PerformanceSample is one window's aggregated average, appended to a
// pattern's rolling history (most recent last).
type PerformanceSample struct {
	WindowStart time.Time `json:"window_start"`
	Average     float64   `json:"average"`
}

// LearningPattern is a rolling per-key performance record. Updates within
// the same (pattern_type, pattern_key, window) are idempotent: repeated
// identical inputs produce a byte-identical document.
type LearningPattern struct {
	UserID    string `json:"user_id"`
	PatternID string `json:"pattern_id"`

	PatternType   PatternType   `json:"pattern_type"`
	PatternKey    string        `json:"pattern_key"`
	SuccessMetric SuccessMetric `json:"success_metric"`

	AveragePerformance    float64             `json:"average_performance"`
	BestPerformanceVariant string             `json:"best_performance_variant"`
	SampleSize            int                 `json:"sample_size"`
	PerformanceHistory     []PerformanceSample `json:"performance_history"`

	LastUpdated time.Time `json:"last_updated"`
}

// WeeklyReport is the §4.5 rollup for one user over [WeekStart, WeekEnd).
type WeeklyReport struct {
	UserID    string    `json:"user_id"`
	WeekStart time.Time `json:"week_start"`
	WeekEnd   time.Time `json:"week_end"`

	TotalPosts           int      `json:"total_posts"`
	AvgEngagementRate    float64  `json:"avg_engagement_rate"`
	BestPillar           Pillar   `json:"best_pillar"`
	TopHashtags          []string `json:"top_hashtags"`
	TopAudienceSegments  []string `json:"top_audience_segments"`

	OutreachSummary OutreachSummary `json:"outreach_summary"`
	Recommendations []string        `json:"recommendations"`

	GeneratedAt time.Time `json:"generated_at"`
}

// OutreachSummary is the outreach-side half of a WeeklyReport.
type OutreachSummary struct {
	ConnectionAcceptRate float64 `json:"connection_accept_rate"`
	DMReplyRate          float64 `json:"dm_reply_rate"`
	MeetingsBooked       int     `json:"meetings_booked"`
	TotalConnections     int     `json:"total_connections"`
	TotalDMs             int     `json:"total_dms"`
}
