package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/outreachforge/prospector/pkg/models"
)

// treatmentVocabulary are acronyms/terms that mark a team/staff page as a
// behavioral-health treatment center (RTC = residential treatment center,
// PHP = partial hospitalization program, IOP = intensive outpatient
// program).
var treatmentVocabulary = []string{"rtc", "php", "iop", "residential treatment", "partial hospitalization", "intensive outpatient", "substance use", "behavioral health"}

// TreatmentCenter handles team/staff/leadership pages of behavioral-health
// treatment centers, identified by vocabulary rather than a fixed host list.
type TreatmentCenter struct{}

// NewTreatmentCenter builds the extractor.
func NewTreatmentCenter() *TreatmentCenter { return &TreatmentCenter{} }

// Name implements Extractor.
func (e *TreatmentCenter) Name() string { return "treatment_center" }

// Matches implements Extractor. Path shape (team/staff/leadership) is a
// necessary signal; the caller is expected to have pre-filtered by fetching
// only pages whose HTML will be passed to Extract, so Matches also accepts
// the URL shape alone and lets Extract's vocabulary check reject false
// positives by returning no candidates.
func (e *TreatmentCenter) Matches(pageURL string) bool {
	lower := strings.ToLower(pageURL)
	return strings.Contains(lower, "/team") || strings.Contains(lower, "/staff") || strings.Contains(lower, "/leadership") || strings.Contains(lower, "/our-team")
}

// Extract implements Extractor.
func (e *TreatmentCenter) Extract(html, pageURL, category string) ([]Candidate, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}
	text := strings.ToLower(pageText(doc))
	hasVocabulary := false
	for _, term := range treatmentVocabulary {
		if strings.Contains(text, term) {
			hasVocabulary = true
			break
		}
	}
	if !hasVocabulary {
		return nil, nil
	}

	org := ResolveOrganization(doc.Selection, pageURL, "")
	var out []Candidate
	doc.Find(".team-member, .staff-member, .leadership-member, .bio-card").Each(func(_ int, s *goquery.Selection) {
		name := StripCredentials(firstText(s, "h2", "h3", ".name"))
		if !IsValidPersonName(name) {
			return
		}
		cardText := s.Text()
		out = append(out, Candidate{
			Name:         name,
			Organization: org,
			JobTitle:     firstText(s, ".title", ".role", ".position"),
			Contact: models.ContactInfo{
				Email: ExtractEmails(cardText, s),
				Phone: ExtractPhone(cardText),
			},
		})
	})
	return dedupeCandidates(out), nil
}
