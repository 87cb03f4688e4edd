package generation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"candidature-ai/internal/intake"
)

// Temperature is fixed: callers cannot change it
const Temperature = 0.4

const systemPrompt = "Tu es un expert RH français spécialisé dans les candidatures d'étudiants, " +
	"d'alternants et de jeunes diplômés. Tu crées des CV, des lettres de motivation et des messages " +
	"de contact extrêmement qualitatifs, adaptés au marché de l'emploi en France. Tu valorises les " +
	"petits jobs, les projets scolaires et les compétences transférables. Tu ne mens jamais sur les " +
	"expériences ou compétences : tu n'inventes aucune expérience, aucun diplôme, aucune compétence. " +
	"Tu écris en français clair, professionnel et accessible. Tu adaptes systématiquement le contenu " +
	"à l'offre ciblée, au poste visé et au ton demandé. Tu retournes toujours une réponse STRICTEMENT " +
	"au format JSON valide, sans markdown et sans aucun texte en dehors du JSON."

const responseShape = `{
  "cv": {
    "header": {"fullName": "", "targetTitle": "", "city": "", "contact": {"email": "", "phone": ""}},
    "summary": "",
    "education": [{"degree": "", "school": "", "startDate": "", "endDate": "", "details": ""}],
    "experience": [{"title": "", "company": "", "startDate": "", "endDate": "", "bullets": [""]}],
    "projects": [{"name": "", "context": "", "bullets": [""]}],
    "skills": {"hardSkills": [""], "softSkills": [""], "tools": [""]},
    "languages": [{"name": "", "level": ""}]
  },
  "cover_letter": {"subject": "", "body": ""},
  "messages": {"linkedin": "", "email": ""},
  "meta": {"language": "fr", "tone": ""}
}`

// BuildSystemPrompt returns the fixed system instruction
func BuildSystemPrompt() string {
	return systemPrompt
}

// BuildUserPrompt embeds the intake as indented JSON followed by the
// expected response shape
func BuildUserPrompt(in *intake.Intake) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(in); err != nil {
		return "", fmt.Errorf("encode intake: %w", err)
	}

	return fmt.Sprintf(`Voici les informations de la candidature au format JSON :
%s
Consigne : génère un unique objet JSON STRICTEMENT conforme à la structure suivante (cv, cover_letter, messages, meta). Pas de texte hors JSON.
%s`, bytes.TrimRight(buf.Bytes(), "\n"), responseShape), nil
}
