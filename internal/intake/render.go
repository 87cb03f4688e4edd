package intake

import (
	"strings"
)

const (
	enDash       = " – "
	contactSep   = " • "
	unknownValue = "?"
)

func titled(title string, lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return title + " :\n" + strings.Join(lines, "\n")
}

func labelled(label string, value Text) string {
	if !value.Present() {
		return ""
	}
	return label + " : " + value.String()
}

// line renders a label that is always emitted, even without a value
func line(label, value string) string {
	return strings.TrimRight(label+" : "+value, " ")
}

func joinPresent(sep string, values ...Text) string {
	var parts []string
	for _, v := range values {
		if v.Present() {
			parts = append(parts, v.String())
		}
	}
	return strings.Join(parts, sep)
}

func joinTexts(values []Text) string {
	return joinPresent(", ", values...)
}

func orDefault(value Text, def string) string {
	if value.Present() {
		return value.String()
	}
	return def
}

func profileBlock(p Profile) []string {
	blocks := []string{line("Nom complet", joinPresent(" ", p.FirstName, p.LastName))}

	var contacts []string
	for _, c := range []string{
		labelled("Email", p.Email),
		labelled("Tel", p.Phone),
		labelled("Ville", p.City),
	} {
		if c != "" {
			contacts = append(contacts, c)
		}
	}
	if p.Age.Valid {
		contacts = append(contacts, "Âge : "+p.Age.String())
	}
	if len(contacts) > 0 {
		blocks = append(blocks, strings.Join(contacts, contactSep))
	}

	return append(blocks, line("Titre CV", p.Headline.String()), labelled("Présentation", p.ShortIntro))
}

func educationBlock(e Education) []string {
	var lines []string
	for _, item := range e.EducationItems {
		var b strings.Builder
		b.WriteString("- ")
		b.WriteString(orDefault(item.Degree, "Formation"))
		if item.School.Present() {
			b.WriteString(enDash + item.School.String())
		}
		if item.StartYear.Present() || item.EndYear.Present() {
			b.WriteString(" (" + orDefault(item.StartYear, unknownValue) + " - " + orDefault(item.EndYear, unknownValue) + ")")
		}
		if item.Details.Present() {
			b.WriteString(" | " + item.Details.String())
		}
		lines = append(lines, b.String())
	}
	return []string{line("Niveau d'études", e.EducationLevel.String()), titled("Formations", lines)}
}

func experienceLines(items []ExperienceItem) []string {
	var lines []string
	for _, item := range items {
		var b strings.Builder
		b.WriteString("- ")
		b.WriteString(orDefaultString(joinPresent(enDash, item.Role, item.Company), "Expérience"))
		if item.ExperienceType.Present() {
			b.WriteString(" (" + item.ExperienceType.String() + ")")
		}
		if item.StartDate.Present() || item.EndDate.Present() {
			b.WriteString(" | " + orDefault(item.StartDate, unknownValue) + " → " + orDefault(item.EndDate, unknownValue))
		}
		if item.Missions.Present() {
			b.WriteString("\n  Missions : " + item.Missions.String())
		}
		if skills := joinTexts(item.ExperienceSkills); skills != "" {
			b.WriteString("\n  Compétences : " + skills)
		}
		lines = append(lines, b.String())
	}
	return lines
}

func projectLines(items []ProjectItem) []string {
	var lines []string
	for _, item := range items {
		var b strings.Builder
		b.WriteString("- ")
		b.WriteString(orDefaultString(joinPresent(enDash, item.Title, item.Context), "Projet"))
		if item.Description.Present() {
			b.WriteString("\n  Rôle : " + item.Description.String())
		}
		if skills := joinTexts(item.ProjectSkills); skills != "" {
			b.WriteString("\n  Compétences : " + skills)
		}
		lines = append(lines, b.String())
	}
	return lines
}

func skillsBlock(s Skills) []string {
	var blocks []string
	if tech := joinTexts(s.TechnicalSkills); tech != "" {
		blocks = append(blocks, "Compétences techniques : "+tech)
	}
	if soft := joinTexts(s.SoftSkills); soft != "" {
		blocks = append(blocks, "Qualités : "+soft)
	}

	var langs []string
	for _, l := range s.Languages {
		entry := orDefault(l.LanguageName, "Langue")
		if l.LanguageLevel.Present() {
			entry += " (" + l.LanguageLevel.String() + ")"
		}
		langs = append(langs, entry)
	}
	if len(langs) > 0 {
		blocks = append(blocks, "Langues : "+strings.Join(langs, ", "))
	}
	return blocks
}

func targetBlock(t JobTarget, o Offer) []string {
	blocks := []string{line("Poste visé", t.JobTitle.String()), labelled("Disponibilité", t.Availability)}
	hasTitle := o.Title != nil && o.Title.Present()
	if hasTitle || o.URL.Present() {
		// "Annonce" stands in only for a missing title, not an empty one
		title := "Annonce"
		if o.Title != nil {
			title = o.Title.String()
		}
		offer := "Offre ciblée : " + title
		if o.URL.Present() {
			offer += enDash + o.URL.String()
		}
		blocks = append(blocks, offer)
	}
	return blocks
}

func orDefaultString(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
