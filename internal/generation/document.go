package generation

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Schema identifies which of the two response shapes a document uses
type Schema string

const (
	SchemaFlat       Schema = "flat"
	SchemaStructured Schema = "structured"
)

// Placeholder texts used when the provider answer cannot be parsed
const (
	PlaceholderCV          = "Contenu CV"
	PlaceholderCoverLetter = "Contenu lettre"
	PlaceholderMessage     = "Contenu message"
)

// FlatDocument is the older shape with one text per section
type FlatDocument struct {
	CVContent          string `json:"cv_content"`
	CoverLetterContent string `json:"cover_letter_content"`
	MessageContent     string `json:"message_content"`
}

// StructuredDocument keeps each section as the JSON the provider produced
type StructuredDocument struct {
	CV          json.RawMessage `json:"cv"`
	CoverLetter json.RawMessage `json:"cover_letter"`
	Messages    json.RawMessage `json:"messages"`
	Meta        json.RawMessage `json:"meta,omitempty"`
}

// Document is a parsed generation result. Exactly one of Flat and
// Structured is set, according to Schema.
type Document struct {
	Schema      Schema              `json:"schema"`
	Flat        *FlatDocument       `json:"flat,omitempty"`
	Structured  *StructuredDocument `json:"structured,omitempty"`
	Placeholder bool                `json:"placeholder"`
}

// PlaceholderDocument is returned whenever the provider answer is unusable
func PlaceholderDocument() Document {
	return Document{
		Schema: SchemaFlat,
		Flat: &FlatDocument{
			CVContent:          PlaceholderCV,
			CoverLetterContent: PlaceholderCoverLetter,
			MessageContent:     PlaceholderMessage,
		},
		Placeholder: true,
	}
}

// cleanMarkdownJSON removes code fences the model may wrap its answer in
func cleanMarkdownJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimSuffix(content, "```")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// ParseDocument never fails: text that is not a JSON object carrying either
// a "cv" section or a "cv_content" field yields the placeholder.
func ParseDocument(text string) Document {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleanMarkdownJSON(text)), &fields); err != nil {
		return PlaceholderDocument()
	}

	if present(fields["cv"]) {
		return Document{
			Schema: SchemaStructured,
			Structured: &StructuredDocument{
				CV:          fields["cv"],
				CoverLetter: orNull(fields["cover_letter"]),
				Messages:    orNull(fields["messages"]),
				Meta:        fields["meta"],
			},
		}
	}
	if present(fields["cv_content"]) {
		return Document{
			Schema: SchemaFlat,
			Flat: &FlatDocument{
				CVContent:          columnText(fields["cv_content"]),
				CoverLetterContent: columnText(fields["cover_letter_content"]),
				MessageContent:     columnText(fields["message_content"]),
			},
		}
	}
	return PlaceholderDocument()
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

func orNull(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage("null")
	}
	return raw
}

// columnText renders a section for a text column: JSON strings are stored
// as their value, anything else as compact JSON, null as "".
func columnText(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// Columns returns the three stored text columns: cv, cover letter, message
func (d Document) Columns() (cv, coverLetter, message string) {
	switch {
	case d.Structured != nil:
		return columnText(d.Structured.CV), columnText(d.Structured.CoverLetter), columnText(d.Structured.Messages)
	case d.Flat != nil:
		return d.Flat.CVContent, d.Flat.CoverLetterContent, d.Flat.MessageContent
	default:
		return "", "", ""
	}
}
