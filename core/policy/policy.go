// Package policy is the single source of truth for role-based permissions.
// It is pure: no I/O, no store access. Resolving an actor's role from a token
// is the transport's job; deciding what that role may do happens here.
package policy

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// Action is a guarded operation on the API surface.
type Action int

const (
	CreateUser Action = iota
	ModifyUser
	ListUsers
	CreateSubject
	ModifySubject
	ListSubjects
	CreateExam
	ModifyExam
	ListExams
)

// Allowed reports whether a role may perform an action. List actions marked
// allowed here may still be scoped down by the service (students only ever see
// their own exam records, for instance).
func Allowed(role Role, action Action) bool {
	switch action {
	case CreateUser, ModifyUser, CreateSubject, ModifySubject, ListSubjects:
		return role == RoleAdmin
	case CreateExam, ModifyExam:
		return role == RoleTeacher
	case ListUsers, ListExams:
		return role.Valid()
	}
	return false
}

// Identity is the resolved actor attached to a guarded operation; it is always
// passed explicitly, never ambient.
type Identity struct {
	UserID int
	Role   Role
}

func (id Identity) IsAdmin() bool   { return id.Role == RoleAdmin }
func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }
