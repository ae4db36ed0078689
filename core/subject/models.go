package subject

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/mwalimu/shule/core"
)

type Status string

const (
	// StatusValidation is the initial state of a subject created without a
	// teacher; it is not taught yet.
	StatusValidation Status = "validation"
	// StatusLive means the subject has an assigned teacher and is taught.
	StatusLive Status = "live"
	// StatusArchived is terminal; the teacher slot is cleared on the way in.
	StatusArchived Status = "archived"
)

func (s Status) Valid() bool {
	switch s {
	case StatusValidation, StatusLive, StatusArchived:
		return true
	}
	return false
}

type Subject struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	TeacherID null.Int  `json:"teacher_id" db:"teacher_id"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"` // UTC
}

// NewSubject contains information needed to create a new Subject.
// A teacher provided at creation makes the subject live right away.
type NewSubject struct {
	Name      string `json:"name" validate:"required"`
	TeacherID int    `json:"teacher_id" validate:"omitempty,min=1"`
}

func (ns *NewSubject) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	return core.Validate.Struct(ns)
}

type RenameSubject struct {
	Name string `json:"name" validate:"required"`
}

func (rs *RenameSubject) Validate() error {
	rs.Name = core.CleanString(rs.Name)
	return core.Validate.Struct(rs)
}

type AssignTeacher struct {
	TeacherID int `json:"teacher_id" validate:"required,min=1"`
}

func (at *AssignTeacher) Validate() error { return core.Validate.Struct(at) }

// QueryFilter narrows a subject search to the whitelisted params.
type QueryFilter struct {
	core.Pagination
	Name      string `query:"name"`
	Status    string `query:"status" validate:"omitempty,oneof=validation live archived"`
	TeacherID int    `query:"teacherId"`
}

func (qf *QueryFilter) Clean() {
	qf.Name = core.CleanString(qf.Name)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

func (qf *QueryFilter) Validate() error { return core.Validate.Struct(qf) }

// ListArgs assembles the equality filters; zero values are dropped there.
func (qf *QueryFilter) ListArgs() core.ListArgs {
	return qf.Pagination.ListArgs(map[string]interface{}{
		"name":       qf.Name,
		"status":     qf.Status,
		"teacher_id": qf.TeacherID,
	})
}
