package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/solienlac/core"
	"github.com/trezcool/solienlac/core/evaluation"
)

// recordStoreApi exposes an evaluation.Store over the REST API consumed by recordsvc.Client.
type recordStoreApi struct {
	store      evaluation.Store
	validate   *validator.Validate
	translator ut.Translator
}

func registerRecordStoreAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	store evaluation.Store,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := recordStoreApi{
		store:      store,
		validate:   validate,
		translator: translator,
	}
	auth := []echo.MiddlewareFunc{jwt, roleMiddleware(RoleRecords)}

	g.GET("/evaluations", api.queryEvaluations, auth...)
	g.POST("/evaluations", api.createEvaluation, auth...)
	g.GET("/evaluations/:id", api.retrieveEvaluation, auth...)
	g.PUT("/evaluations/:id", api.updateEvaluation, auth...)
	g.POST("/subject-comments", api.writeSubjectComment, auth...)
	g.POST("/quality-ratings", api.writeQualityRating, auth...)
	g.GET("/final-term-records", api.queryFinalTermRecords, auth...)
	g.GET("/classes/:id/subjects", api.queryClassSubjects, auth...)
	g.GET("/classes/:id/students", api.queryClassStudents, auth...)
}

func (api *recordStoreApi) check(data interface{}) error {
	return core.TranslateValidationErrors(api.validate.Struct(data), api.translator)
}

// Handlers

func (api *recordStoreApi) queryEvaluations(ctx echo.Context) error {
	studentID := core.CleanString(ctx.QueryParam("student_id"))
	if studentID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "this field is required"})
	}
	semester, schoolYear, err := bindSemester(ctx)
	if err != nil {
		return err
	}

	evals, err := api.store.LookupEvaluations(ctx.Request().Context(), studentID, semester, schoolYear)
	if err != nil {
		return errors.Wrap(err, "looking up evaluations")
	}
	if evals == nil {
		evals = []evaluation.Evaluation{}
	}
	return ctx.JSON(http.StatusOK, evals)
}

func (api *recordStoreApi) retrieveEvaluation(ctx echo.Context) error {
	ev, err := api.store.GetEvaluation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting evaluation")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *recordStoreApi) createEvaluation(ctx echo.Context) error {
	var data evaluation.NewEvaluation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvaluation")
	}
	if err := api.check(data); err != nil {
		return err
	}

	id, err := api.store.CreateEvaluation(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating evaluation")
	}
	return ctx.JSON(http.StatusCreated, IDResponse{ID: id})
}

func (api *recordStoreApi) updateEvaluation(ctx echo.Context) error {
	var data evaluation.Header
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Header")
	}
	if err := api.check(data); err != nil {
		return err
	}

	if err := api.store.UpdateEvaluation(ctx.Request().Context(), ctx.Param("id"), data); err != nil {
		return errors.Wrap(err, "updating evaluation")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *recordStoreApi) writeSubjectComment(ctx echo.Context) error {
	var data SubjectCommentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubjectCommentRequest")
	}
	if err := api.check(data); err != nil {
		return err
	}

	err := api.store.CreateSubjectComment(ctx.Request().Context(), data.EvaluationID, data.SubjectID, data.Comment)
	if err != nil {
		return errors.Wrap(err, "writing subject comment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *recordStoreApi) writeQualityRating(ctx echo.Context) error {
	var data QualityRatingRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QualityRatingRequest")
	}
	if err := api.check(data); err != nil {
		return err
	}

	err := api.store.CreateQualityRating(ctx.Request().Context(), data.EvaluationID, data.TraitID, data.Rating)
	if err != nil {
		return errors.Wrap(err, "writing quality rating")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *recordStoreApi) queryFinalTermRecords(ctx echo.Context) error {
	classID := core.CleanString(ctx.QueryParam("class_id"))
	if classID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "this field is required"})
	}

	records, err := api.store.LookupFinalTermRecords(ctx.Request().Context(), classID)
	if err != nil {
		return errors.Wrap(err, "looking up final term records")
	}
	if records == nil {
		records = []evaluation.FinalTermRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *recordStoreApi) queryClassSubjects(ctx echo.Context) error {
	subjects, err := api.store.LookupClassSubjects(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "looking up class subjects")
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *recordStoreApi) queryClassStudents(ctx echo.Context) error {
	students, err := api.store.LookupClassRoster(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "looking up class roster")
	}
	return ctx.JSON(http.StatusOK, students)
}

type (
	IDResponse struct {
		ID string `json:"id"`
	}

	SubjectCommentRequest struct {
		EvaluationID string `json:"evaluation_id" validate:"notblank"`
		SubjectID    string `json:"subject_id" validate:"notblank"`
		Comment      string `json:"comment"`
	}

	QualityRatingRequest struct {
		EvaluationID string            `json:"evaluation_id" validate:"notblank"`
		TraitID      string            `json:"trait_id" validate:"notblank"`
		Rating       evaluation.Rating `json:"rating" validate:"rating"`
	}
)
