// Package outreach implements the Outreach Engine (§4.4): segmentation,
// prioritization, sequence generation, weekly cadence, and engagement
// tracking.
package outreach

import (
	"sort"
	"strings"

	"github.com/outreachforge/prospector/pkg/models"
)

// affinityVocabulary maps each segment to the role/industry vocabulary that
// signals primary affinity for it, independent of target ratios.
var affinityVocabulary = map[models.Segment][]string{
	models.SegmentReferralNetwork: {"counselor", "therapist", "admissions", "school", "clinician", "psychologist", "referral"},
	models.SegmentThoughtLeadership: {"executive", "founder", "ceo", "cto", "business", "edtech", "leader"},
	models.SegmentStealthFounder:    {"founder", "investor", "early adopter", "angel", "seed"},
}

// segmentAffinity scores how strongly a prospect's role/organization text
// matches a segment's vocabulary.
func segmentAffinity(p models.DiscoveredProspect, seg models.Segment) int {
	text := strings.ToLower(p.JobTitle + " " + p.Organization + " " + p.Category)
	count := 0
	for _, term := range affinityVocabulary[seg] {
		if strings.Contains(text, term) {
			count++
		}
	}
	return count
}

// segmentOrder is the fixed tie-break order used when affinities are equal,
// giving deterministic assignment.
var segmentOrder = []models.Segment{
	models.SegmentReferralNetwork,
	models.SegmentThoughtLeadership,
	models.SegmentStealthFounder,
}

// AssignSegments fits a batch of prospects to the target segment ratios via
// a stable assignment that preserves primary affinity: each prospect is
// first ranked by its best-affinity segment, then assigned greedily in
// affinity-descending order, falling back to the next-best segment once a
// target's capacity is filled. Ties are broken by influence_score desc then
// prospect_id asc.
func AssignSegments(prospects []models.DiscoveredProspect, ratios map[models.Segment]float64) map[string]models.Segment {
	n := len(prospects)
	assignment := make(map[string]models.Segment, n)
	if n == 0 {
		return assignment
	}

	// Stealth founder is an explicit minority carve-out, not a partition
	// partner of the 50/50 split (the three ratios sum to 1.05 by design),
	// so its capacity is computed from n directly and referral/thought
	// leadership split whatever remains in their relative 50/50 proportion.
	stealthCap := int(ratios[models.SegmentStealthFounder]*float64(n) + 0.5)
	if stealthCap > n {
		stealthCap = n
	}
	remaining := n - stealthCap
	referralRatio := ratios[models.SegmentReferralNetwork]
	thoughtRatio := ratios[models.SegmentThoughtLeadership]
	var referralCap int
	if referralRatio+thoughtRatio > 0 {
		referralCap = int(float64(remaining)*(referralRatio/(referralRatio+thoughtRatio)) + 0.5)
	} else {
		referralCap = remaining / 2
	}
	thoughtCap := remaining - referralCap

	capacity := map[models.Segment]int{
		models.SegmentStealthFounder:    stealthCap,
		models.SegmentReferralNetwork:   referralCap,
		models.SegmentThoughtLeadership: thoughtCap,
	}

	type ranked struct {
		prospect models.DiscoveredProspect
		prefs    []models.Segment
	}
	items := make([]ranked, 0, n)
	for _, p := range prospects {
		prefs := append([]models.Segment{}, segmentOrder...)
		sort.SliceStable(prefs, func(i, j int) bool {
			ai, aj := segmentAffinity(p, prefs[i]), segmentAffinity(p, prefs[j])
			return ai > aj
		})
		items = append(items, ranked{prospect: p, prefs: prefs})
	}

	sort.SliceStable(items, func(i, j int) bool {
		bi := segmentAffinity(items[i].prospect, items[i].prefs[0])
		bj := segmentAffinity(items[j].prospect, items[j].prefs[0])
		if bi != bj {
			return bi > bj
		}
		if items[i].prospect.InfluenceScore != items[j].prospect.InfluenceScore {
			return items[i].prospect.InfluenceScore > items[j].prospect.InfluenceScore
		}
		return items[i].prospect.ProspectID < items[j].prospect.ProspectID
	})

	used := make(map[models.Segment]int, len(segmentOrder))
	for _, item := range items {
		assigned := false
		for _, seg := range item.prefs {
			if used[seg] < capacity[seg] {
				assignment[item.prospect.ProspectID] = seg
				used[seg]++
				assigned = true
				break
			}
		}
		if !assigned {
			// every capacity exhausted (can happen only from rounding edge
			// cases); fall back to the segment with the least overflow.
			fallback := item.prefs[0]
			assignment[item.prospect.ProspectID] = fallback
			used[fallback]++
		}
	}
	return assignment
}
