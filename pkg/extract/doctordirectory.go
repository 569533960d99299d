package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/outreachforge/prospector/pkg/models"
)

// doctorDirectoryHosts are the directory sites this extractor covers.
var doctorDirectoryHosts = []string{"healthgrades.com", "zocdoc.com", "vitals.com", "webmd.com", "docspot"}

// DoctorDirectory handles generalist medical-provider directories that
// share a similar listing/profile shape.
type DoctorDirectory struct{}

// NewDoctorDirectory builds the extractor.
func NewDoctorDirectory() *DoctorDirectory { return &DoctorDirectory{} }

// Name implements Extractor.
func (e *DoctorDirectory) Name() string { return "doctor_directory" }

// Matches implements Extractor.
func (e *DoctorDirectory) Matches(pageURL string) bool {
	for _, host := range doctorDirectoryHosts {
		if strings.Contains(pageURL, host) {
			return true
		}
	}
	return false
}

// Extract implements Extractor.
func (e *DoctorDirectory) Extract(html, pageURL, category string) ([]Candidate, error) {
	doc, err := parseHTML(html)
	if err != nil {
		return nil, err
	}

	if isDoctorListingURL(pageURL) {
		var out []Candidate
		doc.Find(`a[href*="/profile"], a[href*="/doctors/"], .provider-card a, .result-card a`).Each(func(_ int, s *goquery.Selection) {
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

	name := StripCredentials(firstText(doc.Selection, "h1", ".provider-name", ".doctor-name"))
	if !IsValidPersonName(name) {
		return nil, nil
	}
	text := pageText(doc)
	c := Candidate{
		Name:         name,
		Organization: ResolveOrganization(doc.Selection, pageURL, name),
		JobTitle:     firstText(doc.Selection, ".specialty", ".provider-specialty"),
		Contact: models.ContactInfo{
			Email: ExtractEmails(text, doc.Selection),
			Phone: ExtractPhone(text),
		},
	}
	return []Candidate{c}, nil
}

func isDoctorListingURL(pageURL string) bool {
	return strings.Contains(pageURL, "/search") || strings.Contains(pageURL, "/directory") || strings.Contains(pageURL, "/find-a-doctor")
}
