package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core/exam"
	"github.com/mwalimu/shule/core/policy"
)

type (
	patchGradeResponse struct {
		ID    int    `json:"id"`
		Grade string `json:"grade"`
	}

	cancelExamResponse struct {
		ID     int         `json:"id"`
		Status exam.Status `json:"status"`
	}
)

type examApi struct {
	svc *exam.Service
}

func registerExamAPI(g *echo.Group, authn []echo.MiddlewareFunc, svc *exam.Service) {
	api := examApi{svc: svc}

	eg := g.Group("/exams", authn...)
	eg.POST("", api.create, requireAction(policy.CreateExam))
	eg.GET("", api.query, requireAction(policy.ListExams))
	eg.PATCH("/:id", api.patchGrade, requireAction(policy.ModifyExam))
	eg.DELETE("/:id", api.cancel, requireAction(policy.ModifyExam))
}

// Handlers

func (api *examApi) create(ctx echo.Context) error {
	var data exam.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	exm, err := api.svc.Create(ctx.Request().Context(), data, ident)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, exm)
}

func (api *examApi) query(ctx echo.Context) error {
	filter := &exam.QueryFilter{
		Pagination: bindPagination(ctx),
		Status:     ctx.QueryParam("status"),
		Grade:      ctx.QueryParam("grade"),
		SubjectID:  queryInt(ctx, "subjectId"),
		StudentID:  queryInt(ctx, "studentId"),
		CreatedBy:  queryInt(ctx, "createdBy"),
	}
	filter.Clean()
	if err := filter.Validate(); err != nil {
		return err
	}

	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	exms, count, err := api.svc.Query(ctx.Request().Context(), filter, ident)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	return ctx.JSON(http.StatusOK, listResponse{Count: count, Results: exms})
}

func (api *examApi) patchGrade(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var data exam.PatchGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PatchGrade")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	exm, err := api.svc.PatchGrade(ctx.Request().Context(), id, data, ident)
	if err != nil {
		return errors.Wrap(err, "patching exam grade")
	}
	return ctx.JSON(http.StatusOK, patchGradeResponse{ID: exm.ID, Grade: exm.Grade})
}

// cancel retires the record instead of deleting it; cancelled exams stay
// queryable.
func (api *examApi) cancel(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	ident, err := getContextIdentity(ctx)
	if err != nil {
		return err
	}

	exm, err := api.svc.Cancel(ctx.Request().Context(), id, ident)
	if err != nil {
		return errors.Wrap(err, "cancelling exam")
	}
	return ctx.JSON(http.StatusOK, cancelExamResponse{ID: exm.ID, Status: exm.Status})
}
