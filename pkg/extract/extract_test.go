package extract_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/outreachforge/prospector/pkg/extract"
)

func TestIsValidPersonName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Jane Smith", true},
		{"Jane Smith, LCSW", false}, // caller should StripCredentials first
		{"Read More", false},
		{"123 Main Street", false},
		{"Click Here", false},
		{"Madison", false},
		{"Madison Clark", true},
		{"", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, extract.IsValidPersonName(c.name), c.name)
	}
}

func TestStripCredentials(t *testing.T) {
	assert.Equal(t, "Jane Smith", extract.StripCredentials("Jane Smith, LCSW, PhD"))
	assert.Equal(t, "Jane Smith", extract.StripCredentials("Jane Smith"))
}

func TestExtractEmails_DeobfuscatesAndDemotesGeneric(t *testing.T) {
	text := "Reach Dr. Smith at jsmith (at) example (dot) com or info@example.com"
	got := extract.ExtractEmails(text, nil)
	assert.Equal(t, "jsmith@example.com", got)
}

func TestExtractEmails_FallsBackToGenericWhenOnlyCandidate(t *testing.T) {
	text := "Contact us at info@example.com for more information."
	got := extract.ExtractEmails(text, nil)
	assert.Equal(t, "info@example.com", got)
}

func TestExtractPhone_NormalizesToE164Like(t *testing.T) {
	got := extract.ExtractPhone("Call us at (555) 123-4567 today")
	assert.Equal(t, "+15551234567", got)
}

func TestRegistry_DispatchesByURLPattern(t *testing.T) {
	reg := extract.NewRegistry()

	assert.Equal(t, "psychology_today", reg.For("https://www.psychologytoday.com/us/therapists/dc").Name())
	assert.Equal(t, "doctor_directory", reg.For("https://www.healthgrades.com/search").Name())
	assert.Equal(t, "embassy", reg.For("https://embassy-of-france.example.com/staff").Name())
	assert.Equal(t, "youth_sports", reg.For("https://example-academy.com/coaches").Name())
	assert.Equal(t, "generic", reg.For("https://unrelated-site.example.com/about").Name())
}

func TestGenericExtractor_SingleProfilePage(t *testing.T) {
	html := `<html><body>
		<h1>Jane Smith</h1>
		<meta property="og:site_name" content="Smith Counseling Group" />
		<p>Email: jane (at) smithcounseling (dot) com. Phone: 555-010-2000</p>
	</body></html>`

	g := extract.NewGeneric()
	candidates, err := g.Extract(html, "https://smithcounseling.com/about", "psychologists")
	assert.NoError(t, err)
	if assert.Len(t, candidates, 1) {
		c := candidates[0]
		assert.Equal(t, "Jane Smith", c.Name)
		assert.Equal(t, "Smith Counseling Group", c.Organization)
		assert.Equal(t, "jane@smithcounseling.com", c.Contact.Email)
		assert.Equal(t, "+15550102000", c.Contact.Phone)
	}
}
