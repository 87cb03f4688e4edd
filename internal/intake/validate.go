package intake

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"candidature-ai/pkg/utils"
)

var intakeValidator = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	RegisterIntakeValidators(v)
	return v
}

// RegisterIntakeValidators registers the custom rules used by Intake
func RegisterIntakeValidators(v *validator.Validate) {
	v.RegisterValidation("trimmed_min", validateTrimmedMin)
}

// validateTrimmedMin checks the rune length of the trimmed string against the
// tag parameter. Text is NFC-composed first so a decomposed "é" counts once.
func validateTrimmedMin(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return utf8.RuneCountInString(norm.NFC.String(strings.TrimSpace(fl.Field().String()))) >= limit
}

// Validate enforces the minimum content rules. It never calls out and must
// run before any generation request.
func Validate(in *Intake) error {
	if in == nil {
		return utils.NewInvalidInputError("empty intake")
	}
	err := intakeValidator.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return utils.NewInvalidInputError(err.Error())
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			problems = append(problems, fmt.Sprintf("%s is required", fe.Field()))
		case "trimmed_min":
			problems = append(problems, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		default:
			problems = append(problems, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return utils.NewInvalidInputError(strings.Join(problems, "; "))
}
