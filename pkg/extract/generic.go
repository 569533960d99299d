package extract

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/outreachforge/prospector/pkg/models"
)

// Generic is the catch-all extractor used when no site-specialized
// extractor's URL pattern matches. It applies the shared name/contact/org
// heuristics against the most common "bio card" HTML shapes.
type Generic struct{}

// NewGeneric builds the extractor.
func NewGeneric() *Generic { return &Generic{} }

// Name implements Extractor.
func (e *Generic) Name() string { return "generic" }

// Matches implements Extractor. Generic is never registered in the
// dispatch list — Registry.For falls back to it directly — so Matches
// always returns false to keep dispatch order explicit.
func (e *Generic) Matches(pageURL string) bool { return false }

// Extract implements Extractor. It first tries bio-card-shaped markup; if
// none is found it falls back to treating the whole page as a single
// profile (useful for small single-person practice sites).
func (e *Generic) Extract(html, pageURL, category string) ([]Candidate, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	var out []Candidate
	doc.Find(".team-member, .staff-member, .bio-card, .profile-card, .person").Each(func(_ int, s *goquery.Selection) {
		name := StripCredentials(firstText(s, "h2", "h3", ".name"))
		if !IsValidPersonName(name) {
			return
		}
		cardText := s.Text()
		out = append(out, Candidate{
			Name:         name,
			Organization: ResolveOrganization(doc.Selection, pageURL, name),
			JobTitle:     firstText(s, ".title", ".role", ".position"),
			Contact: models.ContactInfo{
				Email: ExtractEmails(cardText, s),
				Phone: ExtractPhone(cardText),
			},
		})
	})
	if len(out) > 0 {
		return dedupeCandidates(out), nil
	}

	name := StripCredentials(firstText(doc.Selection, "h1"))
	if !IsValidPersonName(name) {
		return nil, nil
	}
	text := pageText(doc)
	return []Candidate{{
		Name:         name,
		Organization: ResolveOrganization(doc.Selection, pageURL, name),
		Contact: models.ContactInfo{
			Email: ExtractEmails(text, doc.Selection),
			Phone: ExtractPhone(text),
		},
	}}, nil
}
