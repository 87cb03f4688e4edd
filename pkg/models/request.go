package models

// PDFRequest asks for a PDF rendering of a generated document section.
// Only the CV section is rendered today.
type PDFRequest struct {
	CVData *PDFSource `json:"cvData" validate:"required"`
	Type   string     `json:"type" validate:"omitempty,oneof=cv cover_letter message"`
}

// PDFSource carries the structured document the CV is rendered from
type PDFSource struct {
	CV *CV `json:"cv"`
}

// OfferFields are never stored with the form defaults
var OfferFields = []string{"targetJobTitle", "companyName", "jobDescription"}
