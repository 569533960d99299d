package models

import "time"

// ApprovalStatus is the human-review gate a discovered prospect sits behind
// before it can enter outreach.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ContactInfo holds whichever contact channels an extractor recovered.
type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Empty reports whether no contact channel was recovered.
func (c ContactInfo) Empty() bool {
	return c.Email == "" && c.Phone == ""
}

// ProspectScores are the inputs to outreach prioritization.
type ProspectScores struct {
	Fit               float64 `json:"fit"`
	ReferralCapacity  float64 `json:"referral_capacity"`
	SignalStrength    float64 `json:"signal_strength"`
}

// PriorityScore computes the weighted prioritization score per the Outreach
// Engine's fixed weights (0.5 fit, 0.3 referral capacity, 0.2 signal
// strength).
func (s ProspectScores) PriorityScore() float64 {
	return 0.5*s.Fit + 0.3*s.ReferralCapacity + 0.2*s.SignalStrength
}

// DiscoveredProspect is a contact surfaced by the discovery engine. name and
// contact/organization completeness are enforced by the save-time validator
// before one of these is ever persisted.
type DiscoveredProspect struct {
	UserID       string `json:"user_id"`
	ProspectID   string `json:"prospect_id"`

	Name         string `json:"name"`
	Organization string `json:"organization,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`

	SourceURL string `json:"source_url"`
	Source    string `json:"source"`
	Category  string `json:"category"`

	Contact        ContactInfo    `json:"contact"`
	InfluenceScore float64        `json:"influence_score"`
	Segment        Segment        `json:"segment,omitempty"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	Scores         ProspectScores `json:"scores"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasMinimalContact reports the save-time validator's requirement: at least
// one of email, phone, or a non-empty organization.
func (p DiscoveredProspect) HasMinimalContact() bool {
	return !p.Contact.Empty() || p.Organization != ""
}
