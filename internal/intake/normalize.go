package intake

import (
	"encoding/json"
	"strings"

	"candidature-ai/pkg/utils"
)

// DefaultTone is used when the caller expresses no tone preference
const DefaultTone = "standard"

// Intake is the canonical input to generation, whatever shape the caller sent
type Intake struct {
	OfferText        string `json:"offerText" validate:"required,trimmed_min=50"`
	CandidateProfile string `json:"candidateProfile" validate:"required,trimmed_min=30"`
	JobType          string `json:"jobType" validate:"required"`
	TonePreference   string `json:"tonePreference"`

	// Only the flat shape can name the company.
	CompanyName string `json:"companyName,omitempty"`
	Source      Kind   `json:"-"`
}

type legacyBody struct {
	OfferText        string `json:"offerText"`
	CandidateProfile string `json:"candidateProfile"`
	JobType          string `json:"jobType"`
	TonePreference   Text   `json:"tonePreference"`
	CompanyName      Text   `json:"companyName"`
}

// Normalize classifies body and converts it into an Intake. It does not
// validate content; call Validate on the result.
func Normalize(body []byte) (*Intake, error) {
	kind, err := Classify(body)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindLegacy:
		var lb legacyBody
		if err := json.Unmarshal(body, &lb); err != nil {
			return nil, utils.NewInvalidFormatError(err.Error())
		}
		return &Intake{
			OfferText:        lb.OfferText,
			CandidateProfile: lb.CandidateProfile,
			JobType:          lb.JobType,
			TonePreference:   utils.GetStringOrDefault(lb.TonePreference.String(), DefaultTone),
			CompanyName:      lb.CompanyName.String(),
			Source:           KindLegacy,
		}, nil
	default:
		var sub Submission
		if err := json.Unmarshal(body, &sub); err != nil {
			return nil, utils.NewInvalidFormatError(err.Error())
		}
		return FromSubmission(sub), nil
	}
}

// FromSubmission renders a structured submission into an Intake
func FromSubmission(sub Submission) *Intake {
	return &Intake{
		OfferText:        sub.Offer.Text.String(),
		CandidateProfile: RenderProfile(sub),
		JobType:          sub.JobTarget.JobTitle.String(),
		TonePreference:   utils.GetStringOrDefault(sub.JobTarget.TonePreference.String(), DefaultTone),
		Source:           KindStructured,
	}
}

// RenderProfile produces the candidate profile text: one block per section,
// empty blocks dropped, blocks separated by a blank line.
func RenderProfile(sub Submission) string {
	var blocks []string
	add := func(parts ...string) {
		for _, block := range parts {
			if block != "" {
				blocks = append(blocks, block)
			}
		}
	}

	add(profileBlock(sub.Profile)...)
	add(educationBlock(sub.Education)...)
	if sub.Experiences.HasExperience.String() == "yes" {
		add(titled("Expériences professionnelles", experienceLines(sub.Experiences.ExperienceItems)))
	}
	add(titled("Projets", projectLines(sub.Projects.ProjectItems)))
	add(skillsBlock(sub.Skills)...)
	add(targetBlock(sub.JobTarget, sub.Offer)...)

	return strings.Join(blocks, "\n\n")
}
