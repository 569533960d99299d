// Package discovery implements the Prospect Discovery Engine (§4.3):
// per-category search fan-out, extractor dispatch, two-hop scrape, scoring,
// and save-time validation.
package discovery

import "time"

// CategorySeeds maps a discovery category to the seed sites its search
// query is restricted to, beyond the generic seed query.
var CategorySeeds = map[string][]string{
	"psychology_today": {"psychologytoday.com"},
	"doctor_directory":  {"healthgrades.com", "zocdoc.com", "vitals.com", "webmd.com"},
	"treatment_center":  {},
	"embassy":           {},
	"youth_sports":      {},
}

// GenericSeedQuery is appended to every category's query in addition to its
// category-specific seed sites.
const GenericSeedQuery = "staff directory team leadership"

// Config tunes the discovery engine's fan-out, scrape, and scoring behavior.
type Config struct {
	MaxResultsPerCategory int
	ScrapeTimeout         time.Duration
	CategoryConcurrency   int // categories run independently, bounded by this limit
	URLConcurrency        int // per-category URL fan-out, bounded by this limit

	// DorkRotationWindow buckets category queries into a rotating
	// Google-dork operator (§2 Topic Intelligence) so a category re-run
	// within the same window reuses one query shape and a later run
	// rotates to the next.
	DorkRotationWindow time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxResultsPerCategory: 10,
		ScrapeTimeout:         20 * time.Second,
		CategoryConcurrency:   3,
		URLConcurrency:        5,
		DorkRotationWindow:    24 * time.Hour,
	}
}

// blockedOrganizations are directory-site names that extractors sometimes
// resolve to when no real organization is findable on the page; these are
// never valid as a prospect's organization.
var blockedOrganizations = map[string]bool{
	"healthgrades":      true,
	"psychology today":  true,
	"zocdoc":            true,
	"vitals":            true,
	"webmd":             true,
	"yelp":              true,
}
