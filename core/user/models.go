package user

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/policy"
)

// Role is a row of the fixed reference set seeded at install time.
type Role struct {
	ID   int         `json:"id" db:"id"`
	Name policy.Role `json:"name" db:"name"`
}

type User struct {
	ID           int         `json:"id" db:"id"`
	FirstName    string      `json:"first_name" db:"first_name"`
	LastName     string      `json:"last_name" db:"last_name"`
	Email        string      `json:"email" db:"email"`
	PasswordHash []byte      `json:"-" db:"password_hash"`
	RoleID       int         `json:"role_id" db:"role_id"`
	RoleName     policy.Role `json:"role" db:"role_name"` // resolved from the roles table
	CreatedAt    time.Time   `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"` // UTC
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) Identity() policy.Identity {
	return policy.Identity{UserID: u.ID, Role: u.RoleName}
}

func (u *User) IsAdmin() bool   { return u.RoleName == policy.RoleAdmin }
func (u *User) IsTeacher() bool { return u.RoleName == policy.RoleTeacher }
func (u *User) IsStudent() bool { return u.RoleName == policy.RoleStudent }

// NewUser contains information needed to create a new User.
// RoleID is optional; new users are students unless told otherwise.
type NewUser struct {
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	RoleID          int    `json:"role_id" validate:"omitempty,min=1"`
}

func (nu *NewUser) Validate(ctx context.Context, svc *Service) error {
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := core.Validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
// Empty fields keep their current value.
type UpdateUser struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email" validate:"omitempty,email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
	RoleID          int    `json:"role_id" validate:"omitempty,min=1"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, svc *Service) error {
	if firstName := core.CleanString(uu.FirstName); firstName != "" {
		uu.FirstName = firstName
	} else {
		uu.FirstName = origUsr.FirstName
	}

	if lastName := core.CleanString(uu.LastName); lastName != "" {
		uu.LastName = lastName
	} else {
		uu.LastName = origUsr.LastName
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := core.Validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckEmailUniqueness(ctx, uu.Email, origUsr)
}

// QueryFilter narrows a directory listing. UserType is only honored for
// admins; everyone else gets a fixed scope regardless of filters.
type QueryFilter struct {
	core.Pagination
	UserType string `query:"userType" validate:"omitempty,oneof=teacher student"`
}

func (qf *QueryFilter) Clean() {
	qf.UserType = core.CleanString(qf.UserType, true /* lower */)
}

func (qf *QueryFilter) Validate() error { return core.Validate.Struct(qf) }
