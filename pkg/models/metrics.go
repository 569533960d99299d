package models

import "time"

// ReactionCounts is an open platform-specific breakdown of reaction types
// (e.g. "like", "celebrate", "insightful"); kept as a typed map rather than a
// free-form document since it only ever holds integer counts.
type ReactionCounts map[string]int

// ContentMetricCounts are the raw counters a platform reports for one post.
type ContentMetricCounts struct {
	Likes         int            `json:"likes"`
	Comments      int            `json:"comments"`
	Shares        int            `json:"shares"`
	Reactions     ReactionCounts `json:"reactions,omitempty"`
	Impressions   int            `json:"impressions"`
	ProfileViews  int            `json:"profile_views"`
	Clicks        int            `json:"clicks"`
}

// ContentMetric is one post's engagement snapshot. EngagementRate is always
// recomputed server-side from Metrics; any client-supplied value is ignored.
type ContentMetric struct {
	ContentID string `json:"content_id"`
	UserID    string `json:"user_id"`
	Pillar    Pillar `json:"pillar"`
	Platform  string `json:"platform"`
	PostType  string `json:"post_type"`

	Metrics        ContentMetricCounts `json:"metrics"`
	EngagementRate float64             `json:"engagement_rate"`

	TopHashtags     []string `json:"top_hashtags"`
	AudienceSegment []string `json:"audience_segment"`

	CreatedAt time.Time `json:"created_at"`
}

// ComputeEngagementRate implements the fixed formula:
// (likes+comments+shares)/max(impressions,1)*100, rounded to 2 decimals, and
// forced to 0 when impressions is exactly 0.
func ComputeEngagementRate(m ContentMetricCounts) float64 {
	if m.Impressions == 0 {
		return 0
	}
	raw := float64(m.Likes+m.Comments+m.Shares) / float64(m.Impressions) * 100
	return roundTo2(raw)
}

func roundTo2(v float64) float64 {
	scaled := v*100 + 0.5
	if v < 0 {
		scaled = v*100 - 0.5
	}
	return float64(int64(scaled)) / 100
}

// ResponseType classifies a prospect's reply to an outreach DM.
type ResponseType string

const (
	ResponsePositive ResponseType = "positive"
	ResponseNeutral  ResponseType = "neutral"
	ResponseNegative ResponseType = "negative"
)

// DMRecord is one direct-message send and its eventual response, if any.
type DMRecord struct {
	MessageID          string       `json:"message_id"`
	SentAt             time.Time    `json:"sent_at"`
	ResponseReceivedAt *time.Time   `json:"response_received_at,omitempty"`
	ResponseType       ResponseType `json:"response_type,omitempty"`
}

// ProspectMetric tracks one prospect's progress through an outreach
// sequence. ReplyRate and MeetingRate are derived, never stored verbatim
// from client input.
type ProspectMetric struct {
	ProspectID string `json:"prospect_id"`
	SequenceID string `json:"sequence_id"`
	UserID     string `json:"user_id"`

	ConnectionRequestSent bool `json:"connection_request_sent"`
	ConnectionAccepted    bool `json:"connection_accepted"`

	DMsSent        []DMRecord  `json:"dm_sent"`
	MeetingsBooked []time.Time `json:"meetings_booked"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReplyRate returns positive_replies/dms_sent*100, clamped to [0,100] and 0
// when no DMs have been sent.
func (p ProspectMetric) ReplyRate() float64 {
	if len(p.DMsSent) == 0 {
		return 0
	}
	positive := 0
	for _, dm := range p.DMsSent {
		if dm.ResponseType == ResponsePositive {
			positive++
		}
	}
	return clamp(float64(positive) / float64(len(p.DMsSent)) * 100)
}

// MeetingRate returns meetings/dms_sent*100, clamped to [0,100] and 0 when no
// DMs have been sent.
func (p ProspectMetric) MeetingRate() float64 {
	if len(p.DMsSent) == 0 {
		return 0
	}
	return clamp(float64(len(p.MeetingsBooked)) / float64(len(p.DMsSent)) * 100)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
