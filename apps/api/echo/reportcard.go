package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
)

type reportCardApi struct {
	svc *evaluation.Service
}

func registerReportCardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *evaluation.Service) {
	api := reportCardApi{svc: svc}

	g.GET("/traits", api.queryTraits, jwt, roleMiddleware(RoleTeacher))

	rg := g.Group("/report-cards", jwt, roleMiddleware(RoleTeacher))
	rg.GET("/:class_id", api.load)
	rg.POST("/:class_id", api.save)
}

// Handlers

func (api *reportCardApi) load(ctx echo.Context) error {
	semester, schoolYear, err := bindSemester(ctx)
	if err != nil {
		return err
	}
	roster, err := api.svc.LoadRoster(ctx.Request().Context(), ctx.Param("class_id"), semester, schoolYear)
	if err != nil {
		return errors.Wrap(err, "loading roster")
	}
	return ctx.JSON(http.StatusOK, roster)
}

func (api *reportCardApi) save(ctx echo.Context) error {
	var roster evaluation.Roster
	if err := ctx.Bind(&roster); err != nil {
		return errors.Wrap(err, "binding to Roster")
	}
	classID := ctx.Param("class_id")
	switch roster.ClassID {
	case "":
		roster.ClassID = classID
	case classID:
	default:
		return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "does not match the url"})
	}

	if err := api.svc.ResolveRoster(ctx.Request().Context(), &roster); err != nil {
		return errors.Wrap(err, "resolving roster")
	}
	res, err := api.svc.SaveAll(ctx.Request().Context(), &roster)
	if err != nil {
		return errors.Wrap(err, "saving roster")
	}
	return ctx.JSON(http.StatusOK, newSaveResponse(&roster, res))
}

func (api *reportCardApi) queryTraits(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Traits())
}

type (
	// SaveResponse is returned by a roster save whatever its outcome.
	// The roster carries the evaluation ids assigned by the save.
	SaveResponse struct {
		Success  bool               `json:"success"`
		Roster   *evaluation.Roster `json:"roster"`
		Summary  evaluation.Summary `json:"summary"`
		Failures []StudentFailure   `json:"failures"`
	}

	StudentFailure struct {
		StudentID      string             `json:"student_id"`
		Outcome        evaluation.Outcome `json:"outcome"`
		Error          string             `json:"error,omitempty"`
		FailedChildren []ChildFailure     `json:"failed_children,omitempty"`
	}

	ChildFailure struct {
		Kind  evaluation.ChildKind `json:"kind"`
		Key   string               `json:"key"`
		Error string               `json:"error"`
	}
)

func newSaveResponse(roster *evaluation.Roster, res evaluation.Result) SaveResponse {
	out := SaveResponse{
		Success:  res.Success,
		Roster:   roster,
		Summary:  res.Summary(),
		Failures: []StudentFailure{},
	}
	for _, sr := range res.Failures() {
		sf := StudentFailure{StudentID: sr.StudentID, Outcome: sr.Outcome}
		if sr.Err != nil {
			sf.Error = sr.Err.Error()
		}
		for _, c := range sr.FailedChildren() {
			sf.FailedChildren = append(sf.FailedChildren, ChildFailure{Kind: c.Kind, Key: c.Key, Error: c.Err.Error()})
		}
		out.Failures = append(out.Failures, sf)
	}
	return out
}
