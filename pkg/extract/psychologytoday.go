package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/outreachforge/prospector/pkg/models"
)

// PsychologyToday handles psychologytoday.com therapist listing and profile
// pages.
type PsychologyToday struct{}

// NewPsychologyToday builds the extractor.
func NewPsychologyToday() *PsychologyToday { return &PsychologyToday{} }

// Name implements Extractor.
func (e *PsychologyToday) Name() string { return "psychology_today" }

// Matches implements Extractor.
func (e *PsychologyToday) Matches(pageURL string) bool {
	if !strings.Contains(pageURL, "psychologytoday.com") {
		return false
	}
	return strings.Contains(pageURL, "/therapists") || strings.Contains(pageURL, "/rxs/")
}

// Extract implements Extractor. Listing pages (containing "/therapists" and
// a region path, not a specific profile slug) yield partial candidates with
// ProfileURL set for the two-hop scrape; individual profile pages yield
// contact-complete candidates directly.
func (e *PsychologyToday) Extract(html, pageURL, category string) ([]Candidate, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	if isListingURL(pageURL) {
		var out []Candidate
		doc.Find(`a[href*="/rxs/"], .results-row a, .profile-title a`).Each(func(_ int, s *goquery.Selection) {
			href, ok := s.Attr("href")
			if !ok || href == "" {
				return
			}
			name := StripCredentials(strings.TrimSpace(s.Text()))
			if !IsValidPersonName(name) {
				return
			}
			out = append(out, Candidate{Name: name, ProfileURL: absoluteHref(pageURL, href)})
		})
		return dedupeCandidates(out), nil
	}

	name := StripCredentials(firstText(doc.Selection, "h1", ".profile-name"))
	if !IsValidPersonName(name) {
		return nil, nil
	}
	text := pageText(doc)
	org := ResolveOrganization(doc.Selection, pageURL, name)
	c := Candidate{
		Name:         name,
		Organization: org,
		JobTitle:     firstText(doc.Selection, ".profile-credentials", ".credentials"),
		Contact: models.ContactInfo{
			Email: ExtractEmails(text, doc.Selection),
			Phone: ExtractPhone(text),
		},
	}
	return []Candidate{c}, nil
}

func isListingURL(pageURL string) bool {
	return strings.Contains(pageURL, "/therapists/") && !strings.Contains(pageURL, "/rxs/")
}
