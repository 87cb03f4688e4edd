package models

// CV is the structured curriculum produced by the generation step and
// consumed by the PDF renderer
type CV struct {
	Header        CVHeader      `json:"header"`
	Summary       string        `json:"summary,omitempty"`
	Education     []CVEducation `json:"education,omitempty"`
	Experience    []CVEntry     `json:"experience,omitempty"`
	Projects      []CVProject   `json:"projects,omitempty"`
	Skills        CVSkills      `json:"skills"`
	Languages     []CVLanguage  `json:"languages,omitempty"`
	TemplateStyle string        `json:"templateStyle,omitempty" validate:"template_style"`
	AccentColor   string        `json:"accentColor,omitempty" validate:"accent"`
}

type CVHeader struct {
	FullName    string    `json:"fullName"`
	TargetTitle string    `json:"targetTitle,omitempty"`
	City        string    `json:"city,omitempty"`
	Contact     CVContact `json:"contact"`
}

type CVContact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type CVEducation struct {
	Degree    string `json:"degree"`
	School    string `json:"school,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Details   string `json:"details,omitempty"`
}

type CVEntry struct {
	Title     string   `json:"title"`
	Company   string   `json:"company,omitempty"`
	StartDate string   `json:"startDate,omitempty"`
	EndDate   string   `json:"endDate,omitempty"`
	Bullets   []string `json:"bullets,omitempty"`
}

type CVProject struct {
	Name    string   `json:"name"`
	Context string   `json:"context,omitempty"`
	Bullets []string `json:"bullets,omitempty"`
}

type CVSkills struct {
	HardSkills []string `json:"hardSkills,omitempty"`
	SoftSkills []string `json:"softSkills,omitempty"`
	Tools      []string `json:"tools,omitempty"`
}

type CVLanguage struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}
