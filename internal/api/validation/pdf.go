package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// AccentPattern accepts a six digit hex colour with an optional leading #
var AccentPattern = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// ValidateAccent allows an empty accent, which falls back to the default
func ValidateAccent(fl validator.FieldLevel) bool {
	accent := strings.TrimSpace(fl.Field().String())
	return accent == "" || AccentPattern.MatchString(accent)
}

// StylePattern restricts template styles to short safe tokens
var StylePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,31}$`)

func ValidateStyle(fl validator.FieldLevel) bool {
	style := fl.Field().String()
	return style == "" || StylePattern.MatchString(style)
}

// RegisterDocumentValidators registers the rules used by PDF requests
func RegisterDocumentValidators(v *validator.Validate) {
	v.RegisterValidation("accent", ValidateAccent)
	v.RegisterValidation("template_style", ValidateStyle)
}
