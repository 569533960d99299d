// Package models holds the tagged-variant record types shared across the
// research, discovery, outreach, and learning engines. Every type here is a
// concrete struct — no free-form maps stand in for a domain entity.
package models

// Pillar is the strategic content axis an Insight or ContentDraft is tied to.
type Pillar string

const (
	PillarReferral          Pillar = "referral"
	PillarThoughtLeadership Pillar = "thought_leadership"
	PillarStealthFounder    Pillar = "stealth_founder"
)

// AudienceMap is the deterministic pillar -> audience-tag-set mapping.
// Audiences on an Insight are always derived from this table, never set
// independently by a caller.
var AudienceMap = map[Pillar][]string{
	PillarReferral: {
		"private_school_admins",
		"mental_health_professionals",
		"treatment_centers",
		"school_counselors",
	},
	PillarThoughtLeadership: {
		"edtech_business_leaders",
		"ai_savvy_executives",
		"educators",
	},
	PillarStealthFounder: {
		"early_adopters",
		"investors",
		"stealth_founders",
	},
}

// AudiencesFor returns a defensive copy of the audience set for a pillar.
func AudiencesFor(p Pillar) []string {
	src := AudienceMap[p]
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Segment is the outreach audience class a prospect is routed into. It is
// assigned by the Outreach Engine, never at discovery time.
type Segment string

const (
	SegmentReferralNetwork    Segment = "referral_network"
	SegmentThoughtLeadership  Segment = "thought_leadership"
	SegmentStealthFounder     Segment = "stealth_founder"
)

// DefaultSegmentRatios is the target distribution the segmentation step fits
// prospects to. Stealth-founder share is canonically 5% per the resolved
// open question (some docs claim 10%; the Outreach Engine implementation
// uses 5%).
var DefaultSegmentRatios = map[Segment]float64{
	SegmentReferralNetwork:   0.50,
	SegmentThoughtLeadership: 0.50,
	SegmentStealthFounder:    0.05,
}

// StealthFounderShareAlt is the inert alternate allocation mentioned by some
// source docs (10%). It is not wired into DefaultSegmentRatios, and no
// config field or code path reads it.
const StealthFounderShareAlt = 0.10
