package models

import "time"

// InsightStatus is the lifecycle status of a research Insight.
type InsightStatus string

const (
	InsightStatusCollecting             InsightStatus = "collecting"
	InsightStatusProcessing             InsightStatus = "processing"
	InsightStatusReadyForContentGen     InsightStatus = "ready_for_content_generation"
	InsightStatusFailed                 InsightStatus = "failed"
)

// statusRank gives the monotonic ordering used to guard against status
// regression: ready_for_content_generation can never revert to collecting.
var statusRank = map[InsightStatus]int{
	InsightStatusCollecting:         0,
	InsightStatusProcessing:         1,
	InsightStatusReadyForContentGen: 2,
	InsightStatusFailed:             3,
}

// CanTransition reports whether moving from "from" to "to" respects the
// monotonic status guard. Failed is a terminal sink reachable from any state;
// otherwise status only moves forward.
func CanTransition(from, to InsightStatus) bool {
	if to == InsightStatusFailed {
		return true
	}
	return statusRank[to] >= statusRank[from]
}

// SourceType identifies which provider an InsightSource came from.
type SourceType string

const (
	SourcePerplexity SourceType = "perplexity"
	SourceFirecrawl  SourceType = "firecrawl"
	SourceGoogle     SourceType = "google"
	SourceTopicIntel SourceType = "topic_intel"
)

// InsightSource is one provider's contribution to an Insight.
type InsightSource struct {
	Type        SourceType `json:"type"`
	URL         string     `json:"url,omitempty"`
	Summary     string     `json:"summary"`
	KeyPoints   []string   `json:"key_points"`
	CollectedAt time.Time  `json:"collected_at"`
}

// ProspectTarget is a candidate contact surfaced while reading research
// source text, before it becomes a full DiscoveredProspect.
type ProspectTarget struct {
	Name            string   `json:"name"`
	Role            string   `json:"role,omitempty"`
	Organization    string   `json:"organization,omitempty"`
	URL             string   `json:"url,omitempty"`
	PillarRelevance []string `json:"pillar_relevance,omitempty"`
	RelevanceScore  float64  `json:"relevance_score"`
}

// EngagementSignals capture the derived heuristic scores used to rank an
// Insight's usefulness for content generation.
type EngagementSignals struct {
	RelevanceScore float64 `json:"relevance_score"`
	TrendScore     float64 `json:"trend_score"`
	UrgencyScore   float64 `json:"urgency_score"`
}

// Insight is the durable result of a research workflow run for one topic.
type Insight struct {
	UserID    string `json:"user_id"`
	InsightID string `json:"insight_id"`

	Topic     string        `json:"topic"`
	Pillar    Pillar        `json:"pillar"`
	Audiences []string      `json:"audiences"`
	Tags      []string      `json:"tags"`
	Status    InsightStatus `json:"status"`
	DedupHash string        `json:"dedup_hash"`

	// Cancelled distinguishes a caller-aborted workflow from an ordinary
	// all-providers-failed outcome; both use Status = failed (the status
	// enum is closed per the data model), but only a cancelled run sets
	// this marker on read-back.
	Cancelled bool `json:"cancelled"`

	Sources         []InsightSource   `json:"sources"`
	ProspectTargets []ProspectTarget  `json:"prospect_targets"`
	Engagement      EngagementSignals `json:"engagement_signals"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
