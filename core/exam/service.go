package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/policy"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("exam not found")
	ErrDuplicate = core.NewConflictError("an exam for this student, subject and date already exists")
)

type (
	Repository interface {
		CreateExam(ctx context.Context, exm Exam) (Exam, error)
		// GetExamByID resolves SubjectTeacherID along with the record.
		GetExamByID(ctx context.Context, id int) (Exam, error)
		// QueryExams applies AND on the equality filters in args.Where.
		// Returns the page and the unpaginated total.
		QueryExams(ctx context.Context, args core.ListArgs) ([]Exam, int, error)
		UpdateExamGrade(ctx context.Context, id int, grade string) (Exam, error)
		CancelExam(ctx context.Context, id int) (Exam, error)
		// SubjectIDsByTeacher lists the subjects currently taught by a teacher.
		SubjectIDsByTeacher(ctx context.Context, teacherID int) ([]int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create records an exam authored by the acting teacher. Only the teacher of
// the target subject may add records for it; the existence check runs first so
// a teacher with no subjects gets a not-found rather than a denial.
func (svc *Service) Create(ctx context.Context, ne NewExam, actor policy.Identity) (Exam, error) {
	subjectIDs, err := svc.repo.SubjectIDsByTeacher(ctx, actor.UserID)
	if err != nil {
		return Exam{}, err
	}
	if len(subjectIDs) == 0 {
		return Exam{}, core.NewNotFoundError(fmt.Sprintf("no subjects found for teacher %d", actor.UserID))
	}
	if !containsID(subjectIDs, ne.SubjectID) {
		return Exam{}, core.NewAuthorizationError(fmt.Sprintf(
			"only the teacher of subject %d may add an exam record for it", ne.SubjectID,
		))
	}

	status := StatusValid
	if ne.Status != "" {
		status = Status(ne.Status)
	}
	now := time.Now().UTC()
	exm := Exam{
		ExamDate:  ne.ExamDate,
		Grade:     ne.Grade,
		SubjectID: ne.SubjectID,
		StudentID: ne.StudentID,
		CreatedBy: actor.UserID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateExam(ctx, exm)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Exam, error) {
	return svc.repo.GetExamByID(ctx, id)
}

// PatchGrade updates the grade only. Existence is checked before ownership so
// a missing exam is reported as not-found, never as a denial.
func (svc *Service) PatchGrade(ctx context.Context, id int, pg PatchGrade, actor policy.Identity) (Exam, error) {
	exm, err := svc.repo.GetExamByID(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if err := svc.canManage(exm, actor); err != nil {
		return Exam{}, err
	}
	return svc.repo.UpdateExamGrade(ctx, id, pg.Grade)
}

// Cancel transitions the exam to cancelled. Cancelling an already-cancelled
// exam is a no-op success; nothing is destroyed either way.
func (svc *Service) Cancel(ctx context.Context, id int, actor policy.Identity) (Exam, error) {
	exm, err := svc.repo.GetExamByID(ctx, id)
	if err != nil {
		return Exam{}, err
	}
	if err := svc.canManage(exm, actor); err != nil {
		return Exam{}, err
	}
	if exm.Status == StatusCancelled {
		return exm, nil
	}
	return svc.repo.CancelExam(ctx, id)
}

// Query lists exams. Students only ever see their own records: the scope
// overrides any caller-supplied studentId filter.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, actor policy.Identity) ([]Exam, int, error) {
	args := filter.ListArgs()
	if actor.IsStudent() {
		args.Where["student_id"] = actor.UserID
	}
	return svc.repo.QueryExams(ctx, args)
}

// canManage allows the subject's currently assigned teacher as well as the
// exam's original author: reassigning a subject hands over exam management,
// and authors keep rights over records they created.
func (svc *Service) canManage(exm Exam, actor policy.Identity) error {
	if actor.UserID == exm.CreatedBy {
		return nil
	}
	if exm.SubjectTeacherID.Valid && actor.UserID == exm.SubjectTeacherID.Int {
		return nil
	}
	return core.NewAuthorizationError(fmt.Sprintf(
		"only the teacher of subject %d may update that exam record", exm.SubjectID,
	))
}

func containsID(ids []int, id int) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
