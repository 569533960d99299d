package models

import "time"

// DraftStatus is the publication lifecycle of a ContentDraft.
type DraftStatus string

const (
	DraftStatusDraft     DraftStatus = "draft"
	DraftStatusApproved  DraftStatus = "approved"
	DraftStatusScheduled DraftStatus = "scheduled"
	DraftStatusPublished DraftStatus = "published"
)

// ContentDraft is a generated piece of outreach-adjacent content, optionally
// auto-linked to the research insights that informed it.
type ContentDraft struct {
	DraftID string `json:"draft_id"`
	UserID  string `json:"user_id"`

	Pillar     Pillar `json:"pillar"`
	Topic      string `json:"topic"`
	TemplateID string `json:"template_id"`
	Content    string `json:"content"`

	SuggestedHashtags []string `json:"suggested_hashtags"`
	EngagementHook    string   `json:"engagement_hook"`

	Status            DraftStatus `json:"status"`
	LinkedResearchIDs []string    `json:"linked_research_ids"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
