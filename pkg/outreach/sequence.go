package outreach

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
)

// templateFamilies holds the segment-specific variant wording for each step
// name, with {name}/{role}/{company}/{outreach_angle} placeholders bound at
// generation time. Each step draws num_variants (2-3) from its family.
var templateFamilies = map[models.Segment]map[string][]string{
	models.SegmentReferralNetwork: {
		"connection_request": {
			"Hi {name}, I work with families in similar situations to the ones you support at {company} and would love to connect.",
			"Hi {name}, your work in {role} caught my attention — connecting to share notes on {outreach_angle}.",
		},
		"initial_dm": {
			"Thanks for connecting, {name}. I've been following {company}'s work on {outreach_angle} and wanted to share something relevant.",
			"Hi {name}, given your role as {role}, I thought you'd find our recent work on {outreach_angle} useful.",
			"Hi {name}, quick note — {outreach_angle} has been coming up a lot with families we work with at {company}.",
		},
		"followup": {
			"Following up, {name} — happy to send over more detail on {outreach_angle} whenever convenient.",
			"No pressure, {name}, just wanted to resurface this in case {outreach_angle} is still top of mind at {company}.",
		},
	},
	models.SegmentThoughtLeadership: {
		"connection_request": {
			"Hi {name}, I admire {company}'s direction on {outreach_angle} and would like to connect.",
			"Hi {name}, as {role} you're clearly close to {outreach_angle} — would love to connect.",
		},
		"initial_dm": {
			"{name}, I wrote up some thinking on {outreach_angle} that I believe would resonate with {company}'s direction.",
			"Hi {name}, given your focus as {role}, thought you'd want early access to our take on {outreach_angle}.",
			"Hi {name}, {outreach_angle} seems squarely in {company}'s wheelhouse — open to a quick exchange?",
		},
		"followup": {
			"Circling back, {name} — still think {outreach_angle} is worth ten minutes of your time.",
			"Hi {name}, no rush, just keeping {outreach_angle} on your radar for {company}.",
		},
	},
	models.SegmentStealthFounder: {
		"connection_request": {
			"Hi {name}, building something early-stage around {outreach_angle} and would value your perspective as {role}.",
			"Hi {name}, {company} came up as a reference point while building on {outreach_angle} — keen to connect.",
		},
		"initial_dm": {
			"{name}, we're heads-down on {outreach_angle} pre-launch and your experience as {role} would be invaluable.",
			"Hi {name}, sharing early because of your work at {company} — would love feedback on {outreach_angle}.",
			"Hi {name}, still in stealth on {outreach_angle}, but your {role} perspective would sharpen our approach.",
		},
		"followup": {
			"Hi {name}, still hoping to get your read on {outreach_angle} whenever you have a few minutes.",
			"{name}, no worries if now isn't the time — {outreach_angle} will keep, whenever you're free.",
		},
	},
}

const defaultStepGap = 3 * 24 * time.Hour

// Generate builds an OutreachSequence for a prospect: steps per the
// sequence type, each with 2-3 variants drawn from the segment's template
// family with {name, role, company, outreach_angle} bound in.
func Generate(c clock.Clock, prospect models.DiscoveredProspect, sequenceType models.SequenceType, segment models.Segment, outreachAngle string) models.OutreachSequence {
	now := c.Now()
	names := models.StepNames(sequenceType)
	family := templateFamilies[segment]
	if family == nil {
		family = templateFamilies[models.SegmentThoughtLeadership]
	}

	steps := make([]models.SequenceStep, 0, len(names))
	for i, name := range names {
		templates := family[templateKey(name)]
		steps = append(steps, models.SequenceStep{
			Name:     name,
			Variants: bindVariants(templates, prospect, outreachAngle),
			SendAt:   now.Add(time.Duration(i) * defaultStepGap),
			State:    models.StepNotSent,
		})
	}

	return models.OutreachSequence{
		ProspectID:   prospect.ProspectID,
		SequenceID:   uuid.NewString(),
		SequenceType: sequenceType,
		Segment:      segment,
		Steps:        steps,
		CurrentStep:  0,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func templateKey(stepName string) string {
	if strings.HasPrefix(stepName, "followup_") {
		return "followup"
	}
	return stepName
}

func bindVariants(templates []string, p models.DiscoveredProspect, outreachAngle string) []models.StepVariant {
	out := make([]models.StepVariant, 0, len(templates))
	for i, tmpl := range templates {
		out = append(out, models.StepVariant{
			VariantIndex: i,
			Text:         bindTemplate(tmpl, p, outreachAngle),
		})
	}
	return out
}

func bindTemplate(tmpl string, p models.DiscoveredProspect, outreachAngle string) string {
	r := strings.NewReplacer(
		"{name}", firstName(p.Name),
		"{role}", orDefault(p.JobTitle, "their role"),
		"{company}", orDefault(p.Organization, "their organization"),
		"{outreach_angle}", orDefault(outreachAngle, "this topic"),
	)
	return r.Replace(tmpl)
}

func firstName(full string) string {
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
