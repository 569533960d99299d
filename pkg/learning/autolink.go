package learning

import (
	"context"
	"sort"
	"strings"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// AutoLinkInsights implements §4.6: when a caller requests content
// generation with a pillar (and optional topic) and does not supply
// explicit linked_research_ids, auto-discover up to 3 insights by filtering
// pillar and intersecting tags with topic keywords, ordered by
// engagement_signals.relevance_score desc.
func (c *Core) AutoLinkInsights(ctx context.Context, userID string, pillar models.Pillar, topic string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}

	insights, err := storage.QueryJSON[models.Insight](ctx, c.Store, storage.CollectionResearchInsights, userID,
		[]storage.Filter{storage.Eq("pillar", string(pillar))}, nil, 0)
	if err != nil {
		return nil, err
	}

	keywords := topicKeywords(topic)
	var candidates []models.Insight
	for _, ins := range insights {
		if len(keywords) > 0 && !tagsIntersect(ins.Tags, keywords) {
			continue
		}
		candidates = append(candidates, ins)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Engagement.RelevanceScore > candidates[j].Engagement.RelevanceScore
	})

	const maxLinked = 3
	if len(candidates) > maxLinked {
		candidates = candidates[:maxLinked]
	}

	ids := make([]string, 0, len(candidates))
	for _, ins := range candidates {
		ids = append(ids, ins.InsightID)
	}
	return ids, nil
}

func topicKeywords(topic string) []string {
	if strings.TrimSpace(topic) == "" {
		return nil
	}
	var out []string
	for _, w := range strings.Fields(strings.ToLower(topic)) {
		if len(w) >= 3 {
			out = append(out, w)
		}
	}
	return out
}

func tagsIntersect(tags, keywords []string) bool {
	set := make(map[string]bool, len(tags))
	for _, t := range tags {
		set[strings.ToLower(t)] = true
	}
	for _, k := range keywords {
		if set[k] {
			return true
		}
	}
	return false
}
