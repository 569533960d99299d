package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/outreachforge/prospector/pkg/models"
)

// Embassy handles embassy/consulate staff directory pages, which tend to be
// hosted on .gov or dedicated embassy-* hostnames.
type Embassy struct{}

// NewEmbassy builds the extractor.
func NewEmbassy() *Embassy { return &Embassy{} }

// Name implements Extractor.
func (e *Embassy) Name() string { return "embassy" }

// Matches implements Extractor.
func (e *Embassy) Matches(pageURL string) bool {
	lower := strings.ToLower(pageURL)
	return strings.Contains(lower, "embassy") || strings.Contains(lower, "consulate")
}

// Extract implements Extractor.
func (e *Embassy) Extract(html, pageURL, category string) ([]Candidate, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	org := ResolveOrganization(doc.Selection, pageURL, "")
	var out []Candidate
	doc.Find(".staff-entry, .official, .directory-entry, tr").Each(func(_ int, s *goquery.Selection) {
		name := StripCredentials(firstText(s, ".name", "td:first-child", "strong"))
		if !IsValidPersonName(name) {
			return
		}
		cardText := s.Text()
		out = append(out, Candidate{
			Name:         name,
			Organization: org,
			JobTitle:     firstText(s, ".title", ".position", "td:nth-child(2)"),
			Contact: models.ContactInfo{
				Email: ExtractEmails(cardText, s),
				Phone: ExtractPhone(cardText),
			},
		})
	})
	return dedupeCandidates(out), nil
}
