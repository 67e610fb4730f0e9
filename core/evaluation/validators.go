package evaluation

import (
	"regexp"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/solienlac/core"
)

var (
	ratingTag  = "rating"
	ratingText = "rating must be one of A, B, C, D or empty"

	evalLabelTag  = "evallabel"
	evalLabelText = "unknown final evaluation"

	schoolYearTag   = "schoolyear"
	schoolYearText  = "school year must look like 2023-2024"
	schoolYearRegex = regexp.MustCompile(`^(\d{4})-(\d{4})$`)
)

// InitValidators registers the evaluation validators. core.InitValidators must be called first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(ratingTag, ratingValidation)
	core.RegisterCustomTranslation(validate, translator, ratingTag, ratingText)

	_ = validate.RegisterValidation(evalLabelTag, evalLabelValidation)
	core.RegisterCustomTranslation(validate, translator, evalLabelTag, evalLabelText)

	_ = validate.RegisterValidation(schoolYearTag, schoolYearValidation)
	core.RegisterCustomTranslation(validate, translator, schoolYearTag, schoolYearText)
}

// Custom Validators

func ratingValidation(fl validator.FieldLevel) bool {
	return Rating(fl.Field().String()).Valid()
}

func evalLabelValidation(fl validator.FieldLevel) bool {
	return Label(fl.Field().String()).Valid()
}

// schoolYearValidation accepts "YYYY-YYYY" where the second year follows the first.
func schoolYearValidation(fl validator.FieldLevel) bool {
	m := schoolYearRegex.FindStringSubmatch(fl.Field().String())
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}
