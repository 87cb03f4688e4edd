package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"candidature-ai/pkg/models"
)

const (
	// WatermarkText is stamped across every page rendered for a free plan
	WatermarkText = "CANDIDATURE AI"

	DefaultAccent = "1F4E79"

	StyleClassic = "classic"
	StyleModern  = "modern"
)

// Options controls the per-request presentation of a document
type Options struct {
	Watermark bool
}

// Engine renders a CV into LaTeX source
type Engine struct {
	tmpl *template.Template
}

func NewEngine() *Engine {
	funcMap := template.FuncMap{
		"escape":  escapeLaTeX,
		"escJoin": escJoin,
	}
	return &Engine{tmpl: template.Must(template.New("cv").Funcs(funcMap).Parse(cvTemplate))}
}

// Render returns the LaTeX source for cv
func (e *Engine) Render(cv *models.CV, opts Options) (string, error) {
	if cv == nil {
		return "", fmt.Errorf("nil cv")
	}
	if strings.TrimSpace(cv.Header.FullName) == "" {
		return "", fmt.Errorf("cv header has no full name")
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, buildViewModel(cv, opts)); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}
	return buf.String(), nil
}

type periodItem struct {
	Heading string
	Sub     string
	Period  string
	Details string
	Bullets []string
}

type languageItem struct {
	Name  string
	Level string
}

type viewModel struct {
	Name      string
	Title     string
	Contact   []string
	Summary   string
	Education []periodItem
	Jobs      []periodItem
	Projects  []periodItem
	Hard      []string
	Soft      []string
	Tools     []string
	Languages []languageItem

	Accent    string
	Modern    bool
	Watermark bool
	Stamp     string
}

func buildViewModel(cv *models.CV, opts Options) viewModel {
	vm := viewModel{
		Name:      strings.TrimSpace(cv.Header.FullName),
		Title:     strings.TrimSpace(cv.Header.TargetTitle),
		Contact:   nonEmpty(cv.Header.Contact.Email, cv.Header.Contact.Phone, cv.Header.City),
		Summary:   strings.TrimSpace(cv.Summary),
		Hard:      nonEmpty(cv.Skills.HardSkills...),
		Soft:      nonEmpty(cv.Skills.SoftSkills...),
		Tools:     nonEmpty(cv.Skills.Tools...),
		Accent:    accentColor(cv.AccentColor),
		Modern:    strings.EqualFold(strings.TrimSpace(cv.TemplateStyle), StyleModern),
		Watermark: opts.Watermark,
		Stamp:     WatermarkText,
	}

	for _, ed := range cv.Education {
		if strings.TrimSpace(ed.Degree) == "" && strings.TrimSpace(ed.School) == "" {
			continue
		}
		vm.Education = append(vm.Education, periodItem{
			Heading: strings.TrimSpace(ed.Degree),
			Sub:     strings.TrimSpace(ed.School),
			Period:  period(ed.StartDate, ed.EndDate),
			Details: strings.TrimSpace(ed.Details),
		})
	}
	for _, job := range cv.Experience {
		if strings.TrimSpace(job.Title) == "" && strings.TrimSpace(job.Company) == "" {
			continue
		}
		vm.Jobs = append(vm.Jobs, periodItem{
			Heading: strings.TrimSpace(job.Title),
			Sub:     strings.TrimSpace(job.Company),
			Period:  period(job.StartDate, job.EndDate),
			Bullets: nonEmpty(job.Bullets...),
		})
	}
	for _, p := range cv.Projects {
		if strings.TrimSpace(p.Name) == "" {
			continue
		}
		vm.Projects = append(vm.Projects, periodItem{
			Heading: strings.TrimSpace(p.Name),
			Sub:     strings.TrimSpace(p.Context),
			Bullets: nonEmpty(p.Bullets...),
		})
	}
	for _, l := range cv.Languages {
		if name := strings.TrimSpace(l.Name); name != "" {
			vm.Languages = append(vm.Languages, languageItem{Name: name, Level: strings.TrimSpace(l.Level)})
		}
	}
	return vm
}

var hexColor = regexp.MustCompile(`^[0-9A-Fa-f]{6}$`)

// accentColor accepts "#RRGGBB" or "RRGGBB"; anything else falls back to the default
func accentColor(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if !hexColor.MatchString(s) {
		return DefaultAccent
	}
	return strings.ToUpper(s)
}

func period(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start + " -- aujourd'hui"
	case start == "":
		return end
	default:
		return start + " -- " + end
	}
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"$", `\$`,
	"&", `\&`,
	"#", `\#`,
	"_", `\_`,
	"%", `\%`,
	"~", `\textasciitilde{}`,
	"^", `\textasciicircum{}`,
)

func escapeLaTeX(s string) string { return latexReplacer.Replace(s) }

// escJoin escapes every element before joining
func escJoin(slice []string, sep string) string {
	out := make([]string, len(slice))
	for i, s := range slice {
		out[i] = escapeLaTeX(s)
	}
	return strings.Join(out, sep)
}

const cvTemplate = `\documentclass[10pt,a4paper]{article}
\usepackage[T1]{fontenc}
\usepackage[utf8]{inputenc}
{{- if .Modern}}
\usepackage[default]{lato}
{{- else}}
\usepackage{charter}
{{- end}}
\usepackage[margin=1.6cm]{geometry}
\usepackage[hidelinks]{hyperref}
\usepackage{xcolor}
\usepackage{enumitem}
\usepackage{titlesec}
{{- if .Watermark}}
\usepackage{draftwatermark}
\SetWatermarkText{ {{- escape .Stamp -}} }
\SetWatermarkScale{0.6}
\SetWatermarkColor[gray]{0.88}
{{- end}}

\definecolor{accent}{HTML}{ {{- .Accent -}} }
\pagestyle{empty}
\setlength{\parindent}{0pt}
\setlist[itemize]{leftmargin=1.2em,itemsep=1pt,topsep=2pt}
{{- if .Modern}}
\titleformat{\section}{\large\bfseries\color{accent}}{}{0em}{}[\color{accent}\titlerule]
{{- else}}
\titleformat{\section}{\large\scshape\color{accent}}{}{0em}{}[\titlerule]
{{- end}}
\titlespacing*{\section}{0pt}{10pt}{5pt}

\begin{document}

\begin{center}
{\LARGE\bfseries {{escape .Name}}}\\[3pt]
{{- if .Title}}
{\large\color{accent} {{escape .Title}}}\\[3pt]
{{- end}}
{{- if .Contact}}
{\small {{escJoin .Contact " \\textbullet{} "}}}
{{- end}}
\end{center}
{{- if .Summary}}

\section*{Profil}
{{escape .Summary}}
{{- end}}
{{- if .Jobs}}

\section*{Expériences}
{{- range .Jobs}}
\textbf{ {{- escape .Heading -}} }{{if .Sub}}, {{escape .Sub}}{{end}}\hfill{\small {{escape .Period}}}
{{- if .Bullets}}
\begin{itemize}
{{- range .Bullets}}
  \item {{escape .}}
{{- end}}
\end{itemize}
{{- else}}\\[4pt]
{{- end}}
{{- end}}
{{- end}}
{{- if .Education}}

\section*{Formation}
{{- range .Education}}
\textbf{ {{- escape .Heading -}} }{{if .Sub}}, {{escape .Sub}}{{end}}\hfill{\small {{escape .Period}}}\\
{{- if .Details}}
{\small {{escape .Details}}}\\[4pt]
{{- end}}
{{- end}}
{{- end}}
{{- if .Projects}}

\section*{Projets}
{{- range .Projects}}
\textbf{ {{- escape .Heading -}} }{{if .Sub}} ({{escape .Sub}}){{end}}
{{- if .Bullets}}
\begin{itemize}
{{- range .Bullets}}
  \item {{escape .}}
{{- end}}
\end{itemize}
{{- else}}\\[4pt]
{{- end}}
{{- end}}
{{- end}}
{{- if or .Hard .Soft .Tools .Languages}}

\section*{Compétences}
{{- if .Hard}}
\textbf{Techniques :} {{escJoin .Hard ", "}}\\
{{- end}}
{{- if .Tools}}
\textbf{Outils :} {{escJoin .Tools ", "}}\\
{{- end}}
{{- if .Soft}}
\textbf{Qualités :} {{escJoin .Soft ", "}}\\
{{- end}}
{{- if .Languages}}
\textbf{Langues :} {{range $i, $l := .Languages}}{{if $i}}, {{end}}{{escape $l.Name}}{{if $l.Level}} ({{escape $l.Level}}){{end}}{{end}}
{{- end}}
{{- end}}

\end{document}
`
