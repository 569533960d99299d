// Package extract implements the capability-based Extractor registry: a
// URL-pattern factory dispatches each discovered page to the specialized
// extractor that knows its layout, falling back to a Generic extractor when
// nothing matches. There is no extractor base class — each extractor is a
// small struct satisfying the Extractor interface, composed from the shared
// HTML/name/contact/organization helpers in this package.
package extract

import "github.com/outreachforge/prospector/pkg/models"

// Extractor is the capability set every site-specialized scraper
// implements: "can I handle this URL?" and "pull prospects out of this
// page". No inheritance — just these two methods.
type Extractor interface {
	// Name identifies the extractor for logging/metrics.
	Name() string
	// Matches reports whether this extractor should handle pageURL.
	Matches(pageURL string) bool
	// Extract pulls candidate prospects out of html, fetched from pageURL
	// while discovering category. Listing-page extractors may return
	// partial prospects (ProfileURL set, Contact empty) for the engine to
	// two-hop scrape; profile-page extraction fills Contact in directly.
	Extract(html, pageURL, category string) ([]Candidate, error)
}

// Candidate is a pre-validation prospect: the extractor's best guess before
// the save-time validator and scorer run. ProfileURL, when set and Contact
// is empty, signals the discovery engine should scrape it as the second hop.
type Candidate struct {
	Name         string
	Organization string
	JobTitle     string
	ProfileURL   string
	Contact      models.ContactInfo
}

// Registry dispatches URLs to extractors by first-match-wins, falling back
// to Generic.
type Registry struct {
	extractors []Extractor
	generic    Extractor
}

// NewRegistry builds the standard registry with all specialized extractors
// registered in priority order, per the URL-pattern table in §4.3.
func NewRegistry() *Registry {
	return &Registry{
		extractors: []Extractor{
			NewPsychologyToday(),
			NewDoctorDirectory(),
			NewEmbassy(),
			NewTreatmentCenter(),
			NewYouthSports(),
		},
		generic: NewGeneric(),
	}
}

// For returns the first extractor whose Matches(pageURL) is true, or the
// Generic fallback if none match.
func (r *Registry) For(pageURL string) Extractor {
	for _, e := range r.extractors {
		if e.Matches(pageURL) {
			return e
		}
	}
	return r.generic
}
