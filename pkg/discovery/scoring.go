package discovery

import "strings"

// categoryWeight reflects how reliably a category's extractor surfaces
// decision-makers versus front-desk staff.
var categoryWeight = map[string]float64{
	"psychology_today": 0.85,
	"doctor_directory":  0.75,
	"treatment_center":  0.90,
	"embassy":           0.80,
	"youth_sports":      0.70,
}

var seniorityTokens = []string{"founder", "president", "director", "chief", "owner", "head", "chair", "principal"}

// roleSeniority scores 0-1 based on presence of seniority vocabulary in a
// job title.
func roleSeniority(jobTitle string) float64 {
	lower := strings.ToLower(jobTitle)
	for _, tok := range seniorityTokens {
		if strings.Contains(lower, tok) {
			return 1.0
		}
	}
	if jobTitle == "" {
		return 0.3
	}
	return 0.5
}

// contactCompleteness scores 0-1 based on which contact channels were
// recovered.
func contactCompleteness(hasEmail, hasPhone bool) float64 {
	switch {
	case hasEmail && hasPhone:
		return 1.0
	case hasEmail || hasPhone:
		return 0.6
	default:
		return 0.0
	}
}

// orgSpecificity scores 0-1: a specific named organization beats a generic
// or empty one.
func orgSpecificity(org string) float64 {
	if org == "" {
		return 0.0
	}
	if blockedOrganizations[strings.ToLower(org)] {
		return 0.0
	}
	if len(org) < 6 {
		return 0.4
	}
	return 1.0
}

// InfluenceScore computes influence_score = f(category_weight,
// role_seniority, contact_completeness, org_specificity) in [0,100],
// deterministic given inputs.
func InfluenceScore(category, jobTitle, organization string, hasEmail, hasPhone bool) float64 {
	cw, ok := categoryWeight[category]
	if !ok {
		cw = 0.6
	}
	raw := 0.35*cw + 0.25*roleSeniority(jobTitle) + 0.25*contactCompleteness(hasEmail, hasPhone) + 0.15*orgSpecificity(organization)
	score := raw * 100
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return roundTo2(score)
}

func roundTo2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
