package outreach

import (
	"sort"

	"github.com/outreachforge/prospector/pkg/models"
)

// Prioritized pairs a prospect with its computed priority score.
type Prioritized struct {
	Prospect models.DiscoveredProspect
	Score    float64
}

// Prioritize scores prospects by ProspectScores.PriorityScore, filters out
// anything below minScore, and returns them sorted score desc then
// prospect_id asc.
func Prioritize(prospects []models.DiscoveredProspect, minScore float64) []Prioritized {
	out := make([]Prioritized, 0, len(prospects))
	for _, p := range prospects {
		score := p.Scores.PriorityScore()
		if score < minScore {
			continue
		}
		out = append(out, Prioritized{Prospect: p, Score: score})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Prospect.ProspectID < out[j].Prospect.ProspectID
	})
	return out
}
