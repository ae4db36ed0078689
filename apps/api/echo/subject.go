package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core/policy"
	"github.com/mwalimu/shule/core/subject"
)

// alreadyAssignedResponse is the accepted-no-op payload for an assign attempt
// on a subject whose teacher slot is taken. The caller gets both ids so it can
// decide to reassign explicitly.
type alreadyAssignedResponse struct {
	Message            string `json:"message"`
	SubjectID          int    `json:"subject_id"`
	TeacherID          int    `json:"teacher_id"`
	RequestedTeacherID int    `json:"requested_teacher_id"`
}

type subjectApi struct {
	svc *subject.Service
}

func registerSubjectAPI(g *echo.Group, authn []echo.MiddlewareFunc, svc *subject.Service) {
	api := subjectApi{svc: svc}

	sg := g.Group("/subjects", authn...)
	sg.POST("", api.create, requireAction(policy.CreateSubject))
	sg.GET("", api.query, requireAction(policy.ListSubjects))
	sg.PATCH("/:id", api.rename, requireAction(policy.ModifySubject))
	sg.DELETE("/:id", api.archive, requireAction(policy.ModifySubject))
	sg.PUT("/:id/assign", api.assign, requireAction(policy.ModifySubject))
	sg.PUT("/:id/reassign", api.reassign, requireAction(policy.ModifySubject))
}

// Handlers

func (api *subjectApi) create(ctx echo.Context) error {
	var data subject.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	subj, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, subj)
}

func (api *subjectApi) query(ctx echo.Context) error {
	filter := &subject.QueryFilter{
		Pagination: bindPagination(ctx),
		Name:       ctx.QueryParam("name"),
		Status:     ctx.QueryParam("status"),
		TeacherID:  queryInt(ctx, "teacherId"),
	}
	filter.Clean()
	if err := filter.Validate(); err != nil {
		return err
	}

	subjs, count, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return ctx.JSON(http.StatusOK, listResponse{Count: count, Results: subjs})
}

func (api *subjectApi) rename(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var data subject.RenameSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RenameSubject")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	subj, err := api.svc.Rename(ctx.Request().Context(), id, data)
	if err != nil {
		return errors.Wrap(err, "renaming subject")
	}
	return ctx.JSON(http.StatusOK, subj)
}

// archive retires the subject instead of deleting it; the row stays for
// historical exam records.
func (api *subjectApi) archive(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	subj, err := api.svc.Archive(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "archiving subject")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *subjectApi) assign(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var data subject.AssignTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacher")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	subj, err := api.svc.Assign(ctx.Request().Context(), id, data.TeacherID)
	if err != nil {
		if aErr, ok := errors.Cause(err).(*subject.AlreadyAssignedError); ok {
			return ctx.JSON(http.StatusAccepted, alreadyAssignedResponse{
				Message:            aErr.Error(),
				SubjectID:          aErr.SubjectID,
				TeacherID:          aErr.TeacherID,
				RequestedTeacherID: aErr.RequestedTeacherID,
			})
		}
		return errors.Wrap(err, "assigning teacher")
	}
	return ctx.JSON(http.StatusOK, subj)
}

func (api *subjectApi) reassign(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var data subject.AssignTeacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssignTeacher")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	subj, err := api.svc.Reassign(ctx.Request().Context(), id, data.TeacherID)
	if err != nil {
		return errors.Wrap(err, "reassigning teacher")
	}
	return ctx.JSON(http.StatusOK, subj)
}
