package subject

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("subject not found")
	ErrNameExists = core.NewConflictError("a subject with this name already exists")

	// ErrTeacherAlreadySet is the repository-level signal that a conditional
	// assign found the teacher slot taken; the service turns it into an
	// AlreadyAssignedError carrying the ids.
	ErrTeacherAlreadySet = errors.New("teacher already set")
)

// AlreadyAssignedError reports an assign attempt on a subject whose teacher
// slot is taken. It is not a failure: the caller gets an accepted-no-op
// response with both ids so it can decide to reassign explicitly.
type AlreadyAssignedError struct {
	SubjectID          int
	TeacherID          int // current holder
	RequestedTeacherID int
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf(
		"cannot assign teacher %d to subject %d: already assigned to teacher %d",
		e.RequestedTeacherID, e.SubjectID, e.TeacherID,
	)
}

type (
	Repository interface {
		CreateSubject(ctx context.Context, subj Subject) (Subject, error)
		GetSubjectByID(ctx context.Context, id int) (Subject, error)
		// QuerySubjects applies AND on the equality filters in args.Where.
		// Returns the page and the unpaginated total.
		QuerySubjects(ctx context.Context, args core.ListArgs) ([]Subject, int, error)
		RenameSubject(ctx context.Context, id int, name string) (Subject, error)
		// ArchiveSubject sets the archived status and clears the teacher slot
		// in the same update.
		ArchiveSubject(ctx context.Context, id int) (Subject, error)
		// AssignTeacher is a conditional write: it only applies when the
		// teacher slot is empty (`WHERE teacher_id IS NULL`), returning
		// ErrTeacherAlreadySet otherwise. Concurrent assigns cannot both win.
		AssignTeacher(ctx context.Context, id, teacherID int) (Subject, error)
		// ReassignTeacher overwrites the teacher slot unconditionally.
		ReassignTeacher(ctx context.Context, id, teacherID int) (Subject, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create persists a new subject. With a teacher it starts live; without one it
// starts in validation.
func (svc *Service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	subj := Subject{
		Name:      ns.Name,
		Status:    StatusValidation,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ns.TeacherID > 0 {
		subj.TeacherID.SetValid(ns.TeacherID)
		subj.Status = StatusLive
	}
	return svc.repo.CreateSubject(ctx, subj)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Subject, int, error) {
	return svc.repo.QuerySubjects(ctx, filter.ListArgs())
}

// Rename updates the name only; status and teacher are untouched.
func (svc *Service) Rename(ctx context.Context, id int, rs RenameSubject) (Subject, error) {
	return svc.repo.RenameSubject(ctx, id, rs.Name)
}

// Archive is reachable from any non-archived state and clears the teacher.
// Archiving an archived subject is a no-op success.
func (svc *Service) Archive(ctx context.Context, id int) (Subject, error) {
	return svc.repo.ArchiveSubject(ctx, id)
}

// Assign sets the teacher and makes the subject live, but never overwrites:
// if the slot is taken the current assignment is reported back untouched.
func (svc *Service) Assign(ctx context.Context, id, teacherID int) (Subject, error) {
	subj, err := svc.repo.AssignTeacher(ctx, id, teacherID)
	if err == nil {
		return subj, nil
	}
	if errors.Cause(err) != ErrTeacherAlreadySet {
		return Subject{}, err
	}

	cur, err := svc.repo.GetSubjectByID(ctx, id)
	if err != nil {
		return Subject{}, err
	}
	return cur, &AlreadyAssignedError{
		SubjectID:          id,
		TeacherID:          cur.TeacherID.Int,
		RequestedTeacherID: teacherID,
	}
}

// Reassign is the explicit override: it overwrites the teacher slot whether
// or not it is set, and makes the subject live.
func (svc *Service) Reassign(ctx context.Context, id, teacherID int) (Subject, error) {
	return svc.repo.ReassignTeacher(ctx, id, teacherID)
}
