package research

import (
	"regexp"
	"sort"
	"strings"

	"github.com/outreachforge/prospector/pkg/models"
)

// namedRoleRE finds "<Capitalized Name>, <role/title>" or
// "<Title> <Capitalized Name>" shapes inside free-text research key points —
// research sources are prose, not markup, so this is regex-driven rather
// than the DOM-based extraction pkg/extract uses on scraped HTML.
var namedRoleRE = regexp.MustCompile(`\b([A-Z][a-z]+(?:\s[A-Z][a-z]+){1,2}),?\s+(?:the\s+)?((?:[A-Za-z]+\s){0,3}(?:director|founder|president|chair|officer|head|lead|manager|counselor|coordinator))\b`)

var orgSuffixRE = regexp.MustCompile(`\b([A-Z][A-Za-z&.'\-]*(?:\s[A-Z][A-Za-z&.'\-]*)*\s(?:Inc\.?|LLC|Center|Centers|Association|Foundation|Academy|School|Clinic|Group|Institute))\b`)

// extractProspectTargets scans key points across all sources for named
// people in leadership/practitioner roles, scores each by mention frequency
// and role seniority, and returns the top-K distinct by (name,
// organization). The pillar does not affect the score; every target is
// tagged with the invoking pillar, and org/url presence is not scored.
func (p *Pipeline) extractProspectTargets(sources []models.InsightSource, pillar models.Pillar, topK int) []models.ProspectTarget {
	type agg struct {
		target   models.ProspectTarget
		mentions int
	}
	byKey := map[string]*agg{}

	var allText []string
	for _, src := range sources {
		allText = append(allText, src.KeyPoints...)
		allText = append(allText, src.Summary)
	}

	for _, text := range allText {
		for _, m := range namedRoleRE.FindAllStringSubmatch(text, -1) {
			name, role := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
			org := nearestOrganization(text, m[0])
			key := strings.ToLower(name) + "|" + strings.ToLower(org)
			if existing, ok := byKey[key]; ok {
				existing.mentions++
				continue
			}
			byKey[key] = &agg{target: models.ProspectTarget{
				Name:            name,
				Role:            role,
				Organization:    org,
				PillarRelevance: []string{string(pillar)},
			}, mentions: 1}
		}
	}

	targets := make([]models.ProspectTarget, 0, len(byKey))
	for _, a := range byKey {
		a.target.RelevanceScore = scoreTargetRelevance(a.mentions, a.target.Role)
		targets = append(targets, a.target)
	}

	sort.Slice(targets, func(i, j int) bool {
		if targets[i].RelevanceScore != targets[j].RelevanceScore {
			return targets[i].RelevanceScore > targets[j].RelevanceScore
		}
		return targets[i].Name < targets[j].Name
	})

	if topK > 0 && len(targets) > topK {
		targets = targets[:topK]
	}
	return targets
}

func nearestOrganization(text, around string) string {
	idx := strings.Index(text, around)
	window := text
	if idx >= 0 {
		start := idx
		end := idx + len(around) + 120
		if end > len(text) {
			end = len(text)
		}
		window = text[start:end]
	}
	if m := orgSuffixRE.FindString(window); m != "" {
		return m
	}
	return ""
}

func scoreTargetRelevance(mentions int, role string) float64 {
	score := 0.3 + 0.15*float64(mentions)
	lower := strings.ToLower(role)
	switch {
	case strings.Contains(lower, "founder") || strings.Contains(lower, "president") || strings.Contains(lower, "director"):
		score += 0.3
	case strings.Contains(lower, "lead") || strings.Contains(lower, "head") || strings.Contains(lower, "chair"):
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return roundTo2(score)
}

func roundTo2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

// scoreRelevance blends tag coverage and prospect-target density into the
// insight's headline relevance score.
func scoreRelevance(insight *models.Insight) float64 {
	score := 0.2
	if len(insight.Tags) > 0 {
		score += 0.3
	}
	if len(insight.ProspectTargets) > 0 {
		score += 0.3
	}
	if len(insight.Sources) >= 2 {
		score += 0.2
	}
	if score > 1 {
		score = 1
	}
	return roundTo2(score)
}

// scoreTrend favors topics corroborated by more than one independent source.
func scoreTrend(sources []models.InsightSource) float64 {
	distinct := map[models.SourceType]bool{}
	for _, s := range sources {
		distinct[s.Type] = true
	}
	score := float64(len(distinct)) / 3
	return roundTo2(score)
}

var urgencyWords = []string{"now", "today", "urgent", "deadline", "breaking", "immediately", "this week"}

// scoreUrgency is a simple lexical signal: presence of time-pressure
// language in the topic string.
func scoreUrgency(topic string) float64 {
	lower := strings.ToLower(topic)
	for _, w := range urgencyWords {
		if strings.Contains(lower, w) {
			return 0.8
		}
	}
	return 0.2
}
