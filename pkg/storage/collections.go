package storage

// Collection names, matching the persisted-state layout in §6:
// users/{uid}/{collection}/{id}.
const (
	CollectionResearchInsights   = "research_insights"
	CollectionProspects          = "prospects"
	CollectionOutreachSequences  = "outreach_sequences"
	CollectionContentDrafts      = "content_drafts"
	CollectionContentMetrics     = "content_metrics"
	CollectionProspectMetrics    = "prospect_metrics"
	CollectionLearningPatterns   = "learning_patterns"
	CollectionActivities         = "activities"
	CollectionWebhooks           = "webhooks"
	CollectionScheduledTopics    = "scheduled_topics"
	CollectionTasks              = "tasks"
)
