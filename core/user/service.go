package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/policy"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("user not found")
	ErrRoleNotFound = core.NewNotFoundError("role not found")
	ErrEmailExists  = core.NewConflictError("a user with this email already exists")
)

type (
	Repository interface {
		CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// QueryUsers applies AND on the equality filters in args.Where; slice
		// values translate to SQL IN. Returns the page and the unpaginated total.
		QueryUsers(ctx context.Context, args core.ListArgs) ([]User, int, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id int) error

		GetRoleByName(ctx context.Context, name policy.Role) (Role, error)
		QueryRoles(ctx context.Context) ([]Role, error)
		// EnsureRole creates the role if absent; seeding is idempotent.
		EnsureRole(ctx context.Context, name policy.Role) (Role, error)
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(ctx, email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	roleID := nu.RoleID
	if roleID == 0 {
		role, err := svc.repo.GetRoleByName(ctx, policy.RoleStudent)
		if err != nil {
			return User{}, errors.Wrap(err, "resolving default role")
		}
		roleID = role.ID
	}

	now := time.Now().UTC()
	usr := User{
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		Email:     nu.Email,
		RoleID:    roleID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Query lists the directory as seen by the actor:
// admins see everyone except other admins, narrowed to a single role by the
// optional userType filter; teachers see students only; students see only
// themselves. The scope always overrides the caller-supplied filter.
func (svc *Service) Query(ctx context.Context, filter *QueryFilter, actor policy.Identity) ([]User, int, error) {
	where := make(map[string]interface{}, 1)

	switch {
	case actor.IsAdmin():
		if filter.UserType != "" {
			role, err := svc.repo.GetRoleByName(ctx, policy.Role(filter.UserType))
			if err != nil {
				return nil, 0, errors.Wrap(err, "resolving userType role")
			}
			where["role_id"] = role.ID
		} else {
			ids, err := svc.roleIDs(ctx, policy.RoleTeacher, policy.RoleStudent)
			if err != nil {
				return nil, 0, err
			}
			where["role_id"] = ids
		}
	case actor.IsTeacher():
		role, err := svc.repo.GetRoleByName(ctx, policy.RoleStudent)
		if err != nil {
			return nil, 0, errors.Wrap(err, "resolving student role")
		}
		where["role_id"] = role.ID
	default:
		where["id"] = actor.UserID
	}

	return svc.repo.QueryUsers(ctx, filter.Pagination.ListArgs(where))
}

func (svc *Service) Update(ctx context.Context, id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		FirstName: uu.FirstName,
		LastName:  uu.LastName,
		Email:     uu.Email,
		RoleID:    uu.RoleID,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) Delete(ctx context.Context, id int) error {
	return svc.repo.DeleteUser(ctx, id)
}

func (svc *Service) QueryRoles(ctx context.Context) ([]Role, error) {
	return svc.repo.QueryRoles(ctx)
}

func (svc *Service) roleIDs(ctx context.Context, names ...policy.Role) ([]int, error) {
	ids := make([]int, 0, len(names))
	for _, name := range names {
		role, err := svc.repo.GetRoleByName(ctx, name)
		if err != nil {
			return nil, errors.Wrapf(err, "resolving role %q", name)
		}
		ids = append(ids, role.ID)
	}
	return ids, nil
}

func (svc *Service) sendWelcomeEmail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: usr.FullName(), Address: usr.Email}},
		Subject: "Welcome!",
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nYour %s account has been created. You can now sign in with your email address.",
			usr.FirstName, core.Conf.AppName,
		),
	})
}
