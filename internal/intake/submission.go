package intake

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is a lenient JSON scalar: strings pass through, numbers and booleans
// are rendered the way a browser would print them, null and anything else
// decode to the empty string. Form fields such as years arrive as either.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case 't', 'f':
		*t = Text(data)
	case 'n', '{', '[':
		*t = ""
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*t = Text(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return nil
}

// String returns the value with surrounding whitespace removed
func (t Text) String() string { return strings.TrimSpace(string(t)) }

// Present reports whether the field carries any non-blank content
func (t Text) Present() bool { return t.String() != "" }

// Number keeps a value only when it was sent as a JSON number
type Number struct {
	Value float64
	Valid bool
}

func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*n = Number{Value: f, Valid: true}
	}
	return nil
}

func (n Number) String() string {
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// Submission is the multi-section intake sent by the guided form
type Submission struct {
	Profile     Profile     `json:"profile"`
	Education   Education   `json:"education"`
	Experiences Experiences `json:"experiences"`
	Projects    Projects    `json:"projects"`
	Skills      Skills      `json:"skills"`
	JobTarget   JobTarget   `json:"jobTarget"`
	Offer       Offer       `json:"offer"`
}

type Profile struct {
	FirstName  Text   `json:"firstName"`
	LastName   Text   `json:"lastName"`
	Email      Text   `json:"email"`
	Phone      Text   `json:"phone"`
	City       Text   `json:"city"`
	Age        Number `json:"age"`
	Headline   Text   `json:"headline"`
	ShortIntro Text   `json:"shortIntro"`
}

type Education struct {
	EducationLevel Text            `json:"educationLevel"`
	EducationItems []EducationItem `json:"educationItems"`
}

type EducationItem struct {
	Degree    Text `json:"degree"`
	School    Text `json:"school"`
	StartYear Text `json:"startYear"`
	EndYear   Text `json:"endYear"`
	Details   Text `json:"details"`
}

type Experiences struct {
	HasExperience   Text             `json:"hasExperience"`
	ExperienceItems []ExperienceItem `json:"experienceItems"`
}

type ExperienceItem struct {
	Role             Text   `json:"role"`
	Company          Text   `json:"company"`
	ExperienceType   Text   `json:"experienceType"`
	StartDate        Text   `json:"startDate"`
	EndDate          Text   `json:"endDate"`
	Missions         Text   `json:"missions"`
	ExperienceSkills []Text `json:"experienceSkills"`
}

type Projects struct {
	ProjectItems []ProjectItem `json:"projectItems"`
}

type ProjectItem struct {
	Title         Text   `json:"title"`
	Context       Text   `json:"context"`
	Description   Text   `json:"description"`
	ProjectSkills []Text `json:"projectSkills"`
}

type Skills struct {
	TechnicalSkills []Text     `json:"technicalSkills"`
	SoftSkills      []Text     `json:"softSkills"`
	Languages       []Language `json:"languages"`
}

type Language struct {
	LanguageName  Text `json:"languageName"`
	LanguageLevel Text `json:"languageLevel"`
}

type JobTarget struct {
	JobTitle       Text `json:"jobTitle"`
	Availability   Text `json:"availability"`
	TonePreference Text `json:"tonePreference"`
}

type Offer struct {
	Text  Text `json:"text"`
	Title *Text `json:"title"`
	URL   Text  `json:"url"`
}
