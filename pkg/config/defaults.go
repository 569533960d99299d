package config

import "github.com/outreachforge/prospector/pkg/models"

// Defaults holds system-wide fallback values applied when a caller (the API
// layer, the scheduler) doesn't specify its own — the same role the
// teacher's Defaults struct plays for alert_type/runbook/llm_provider.
type Defaults struct {
	// Pillar is used when a scheduled-topic plan or ad-hoc research request
	// omits an explicit pillar.
	Pillar models.Pillar `yaml:"pillar,omitempty"`

	// Frequency is used when a scheduled-topic plan omits an explicit
	// replay frequency.
	Frequency models.ScheduledTopicFrequency `yaml:"frequency,omitempty"`
}

func defaultDefaults() *Defaults {
	return &Defaults{
		Pillar:    models.PillarThoughtLeadership,
		Frequency: models.FrequencyWeekly,
	}
}
