package config

import "time"

// RetentionConfig controls how long stored documents are kept before the
// cleanup service (pkg/cleanup) purges them. DefaultTTL applies to every
// collection; CollectionTTLs overrides specific collections, merged over the
// built-in per-collection defaults the same way the teacher merges built-in
// and user-defined agents — user values win, unlisted collections fall back
// to the built-in default.
type RetentionConfig struct {
	DefaultTTL      time.Duration            `yaml:"default_ttl" validate:"gt=0"`
	CollectionTTLs  map[string]time.Duration `yaml:"collection_ttls,omitempty"`
	CleanupInterval time.Duration            `yaml:"cleanup_interval" validate:"gt=0"`
}

// DefaultRetentionConfig returns the built-in retention defaults: activity
// events and outreach sequences age out after 90 days; research insights,
// prospect records, content and prospect metrics, and weekly report cursors
// are kept a year; everything else falls back to 180 days.
func DefaultRetentionConfig() *RetentionConfig {
	const day = 24 * time.Hour
	return &RetentionConfig{
		DefaultTTL: 180 * day,
		CollectionTTLs: map[string]time.Duration{
			"activities":          90 * day,
			"outreach_sequences":  90 * day,
			"research_insights":   365 * day,
			"prospects":           365 * day,
			"content_metrics":     365 * day,
			"prospect_metrics":    365 * day,
			"weekly_report_cursors": 365 * day,
		},
		CleanupInterval: 12 * time.Hour,
	}
}

// TTLFor returns the retention window for collection, falling back to
// DefaultTTL when no override is set.
func (r *RetentionConfig) TTLFor(collection string) time.Duration {
	if d, ok := r.CollectionTTLs[collection]; ok {
		return d
	}
	return r.DefaultTTL
}
