package intake

import (
	"github.com/tidwall/gjson"

	"candidature-ai/pkg/utils"
)

// Kind identifies which request shape a body matched
type Kind int

const (
	KindUnknown Kind = iota
	// KindLegacy is the flat {offerText, candidateProfile, jobType} shape.
	KindLegacy
	// KindStructured is the multi-section guided form submission.
	KindStructured
)

func (k Kind) String() string {
	switch k {
	case KindLegacy:
		return "legacy"
	case KindStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// Classify decides the request shape from field presence and JSON types only.
// The legacy shape wins when a body satisfies both predicates.
func Classify(body []byte) (Kind, error) {
	if !gjson.ValidBytes(body) {
		return KindUnknown, utils.NewInvalidFormatError("body is not valid JSON")
	}

	fields := gjson.GetManyBytes(body, "offerText", "candidateProfile", "jobType")
	if isString(fields[0]) && isString(fields[1]) && isString(fields[2]) {
		return KindLegacy, nil
	}

	structured := gjson.GetManyBytes(body, "profile", "offer.text", "jobTarget.jobTitle")
	if structured[0].IsObject() && isString(structured[1]) && isString(structured[2]) {
		return KindStructured, nil
	}

	return KindUnknown, utils.NewInvalidFormatError("expected offerText/candidateProfile/jobType or profile/offer.text/jobTarget.jobTitle")
}

func isString(r gjson.Result) bool {
	return r.Type == gjson.String
}
