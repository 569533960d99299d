package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/outreachforge/prospector/pkg/models"
)

// sportVocabulary marks clubs/academies pages as youth-sports relevant.
var sportVocabulary = []string{"academy", "club", "league", "travel team", "tournament", "athletics", "youth sports"}

// YouthSports handles /coaches and /team pages for clubs and academies.
type YouthSports struct{}

// NewYouthSports builds the extractor.
func NewYouthSports() *YouthSports { return &YouthSports{} }

// Name implements Extractor.
func (e *YouthSports) Name() string { return "youth_sports" }

// Matches implements Extractor.
func (e *YouthSports) Matches(pageURL string) bool {
	lower := strings.ToLower(pageURL)
	if strings.Contains(lower, "/coaches") || strings.Contains(lower, "/team") {
		return true
	}
	for _, term := range sportVocabulary {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Extract implements Extractor.
func (e *YouthSports) Extract(html, pageURL, category string) ([]Candidate, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	org := ResolveOrganization(doc.Selection, pageURL, "")
	var out []Candidate
	doc.Find(".coach-card, .staff-card, .team-member").Each(func(_ int, s *goquery.Selection) {
		name := StripCredentials(firstText(s, "h2", "h3", ".name"))
		if !IsValidPersonName(name) {
			return
		}
		cardText := s.Text()
		out = append(out, Candidate{
			Name:         name,
			Organization: org,
			JobTitle:     firstText(s, ".role", ".position", ".title"),
			Contact: models.ContactInfo{
				Email: ExtractEmails(cardText, s),
				Phone: ExtractPhone(cardText),
			},
		})
	})
	return dedupeCandidates(out), nil
}
