package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
)

var (
	semesterParam   = "semester"
	schoolYearParam = "school_year"
)

// bindSemester reads the semester and school_year query parameters.
// Their validation is left to the service.
func bindSemester(ctx echo.Context) (evaluation.Semester, string, error) {
	var semester int
	if val := ctx.QueryParam(semesterParam); val != "" {
		var err error
		if semester, err = strconv.Atoi(val); err != nil {
			return 0, "", core.NewValidationError(
				errors.Wrap(err, "parsing semester"),
				core.FieldError{Field: semesterParam, Error: "semester must be 1 or 2"},
			)
		}
	}
	return evaluation.Semester(semester), core.CleanString(ctx.QueryParam(schoolYearParam)), nil
}
