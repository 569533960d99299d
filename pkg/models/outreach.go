package models

import "time"

// SequenceType names a template family of outreach steps.
type SequenceType string

const (
	Sequence3Step      SequenceType = "3-step"
	Sequence5Step      SequenceType = "5-step"
	Sequence7Step      SequenceType = "7-step"
	SequenceSoftNudge  SequenceType = "soft_nudge"
	SequenceDirectCTA  SequenceType = "direct_cta"
)

// stepCounts maps a sequence type to its number of followup steps (beyond
// the fixed connection_request + initial_dm pair).
var stepCounts = map[SequenceType]int{
	Sequence3Step:     1,
	Sequence5Step:     3,
	Sequence7Step:     5,
	SequenceSoftNudge: 1,
	SequenceDirectCTA: 0,
}

// FollowupCount returns how many followup_N steps a sequence type defines.
func FollowupCount(t SequenceType) int {
	return stepCounts[t]
}

// StepState is a single outreach step's progress through its send lifecycle.
type StepState string

const (
	StepNotSent       StepState = "not_sent"
	StepSent          StepState = "sent"
	StepDelivered     StepState = "delivered"
	StepOpened        StepState = "opened"
	StepReplied       StepState = "replied"
	StepNoResponse    StepState = "no_response"
	StepMeetingBooked StepState = "meeting_booked"
	StepNotInterested StepState = "not_interested"
)

// StepVariant is one generated wording for a step, with its prospect-bound
// placeholders already resolved.
type StepVariant struct {
	VariantIndex int    `json:"variant_index"`
	Text         string `json:"text"`
}

// SequenceStep is one rung of an outreach sequence (connection_request,
// initial_dm, followup_1..k).
type SequenceStep struct {
	Name     string        `json:"name"`
	Variants []StepVariant `json:"variants"`
	SendAt   time.Time     `json:"send_at"`
	State    StepState     `json:"state"`
}

// OutreachSequence is the generated, scheduled multi-step outreach plan for
// one prospect.
type OutreachSequence struct {
	UserID       string       `json:"user_id"`
	SequenceID   string       `json:"sequence_id"`
	ProspectID   string       `json:"prospect_id"`
	SequenceType SequenceType `json:"sequence_type"`
	Segment      Segment      `json:"segment"`

	Steps       []SequenceStep `json:"steps"`
	CurrentStep int            `json:"current_step"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StepNames returns the canonical step-name sequence for a sequence type:
// connection_request, initial_dm, followup_1..followup_k.
func StepNames(t SequenceType) []string {
	names := []string{"connection_request", "initial_dm"}
	for i := 1; i <= FollowupCount(t); i++ {
		names = append(names, "followup_"+itoa(i))
	}
	return names
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// CadenceEntry is one scheduled send slot within a weekly cadence plan.
type CadenceEntry struct {
	Day          string `json:"day"`
	TimeOfDay    string `json:"time_of_day"`
	ProspectID   string `json:"prospect_id"`
	OutreachType string `json:"outreach_type"`
	StepIndex    int    `json:"step_index"`
	VariantIndex int    `json:"variant_index"`
}
