package exam

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/shule/core"
)

type Status string

const (
	StatusValid Status = "valid"
	// StatusCancelled is terminal. Exams are never deleted; cancellation is
	// the soft equivalent.
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	return s == StatusValid || s == StatusCancelled
}

type Exam struct {
	ID        int       `json:"id" db:"id"`
	ExamDate  time.Time `json:"exam_date" db:"exam_date"`
	Grade     string    `json:"grade" db:"grade"`
	SubjectID int       `json:"subject_id" db:"subject_id"`
	StudentID int       `json:"student_id" db:"student_id"`
	CreatedBy int       `json:"created_by" db:"created_by"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC

	// SubjectTeacherID is the current teacher of the referenced subject,
	// resolved on reads for the ownership check. Never serialized.
	SubjectTeacherID null.Int `json:"-" db:"subject_teacher_id"`
}

// NewExam contains information needed to record an exam. The author is the
// acting teacher, never part of the payload. Status may only be supplied as
// one of the two known states; it defaults to valid.
type NewExam struct {
	ExamDate  time.Time `json:"exam_date" validate:"required"`
	Grade     string    `json:"grade" validate:"required,oneof=A B C D E"`
	SubjectID int       `json:"subject_id" validate:"required,min=1"`
	StudentID int       `json:"student_id" validate:"required,min=1"`
	Status    string    `json:"status" validate:"omitempty,oneof=valid cancelled"`
}

func (ne *NewExam) Validate() error {
	ne.Grade = core.CleanString(ne.Grade)
	ne.Status = core.CleanString(ne.Status, true /* lower */)
	return core.Validate.Struct(ne)
}

type PatchGrade struct {
	Grade string `json:"grade" validate:"required,oneof=A B C D E"`
}

func (pg *PatchGrade) Validate() error {
	pg.Grade = core.CleanString(pg.Grade)
	return core.Validate.Struct(pg)
}

// QueryFilter narrows an exam search to the whitelisted params.
type QueryFilter struct {
	core.Pagination
	Status    string `query:"status" validate:"omitempty,oneof=valid cancelled"`
	Grade     string `query:"grade" validate:"omitempty,oneof=A B C D E"`
	SubjectID int    `query:"subjectId"`
	StudentID int    `query:"studentId"`
	CreatedBy int    `query:"createdBy"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	qf.Grade = core.CleanString(qf.Grade)
}

func (qf *QueryFilter) Validate() error { return core.Validate.Struct(qf) }

// ListArgs assembles the equality filters; zero values are dropped there.
func (qf *QueryFilter) ListArgs() core.ListArgs {
	return qf.Pagination.ListArgs(map[string]interface{}{
		"status":     qf.Status,
		"grade":      qf.Grade,
		"subject_id": qf.SubjectID,
		"student_id": qf.StudentID,
		"created_by": qf.CreatedBy,
	})
}
