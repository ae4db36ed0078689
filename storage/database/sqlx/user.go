package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/policy"
	"github.com/mwalimu/shule/core/user"
)

const userCols = `u.id, u.first_name, u.last_name, u.email, u.password_hash, u.role_id, u.created_at, u.updated_at, r.name AS role_name`

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...user.User) error {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = ?`
	vals := []interface{}{email}
	if len(exclUsers) > 0 {
		ids := make([]int, 0, len(exclUsers))
		for _, usr := range exclUsers {
			ids = append(ids, usr.ID)
		}
		query += ` AND id NOT IN (?)`
		vals = append(vals, ids)
	}
	query += `)`

	query, args, err := bindQuery(repo.db, query, vals)
	if err != nil {
		return err
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if exists {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	query := `
	INSERT INTO users (first_name, last_name, email, password_hash, role_id, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id`

	var id int
	err := repo.db.GetContext(ctx, &id, query,
		usr.FirstName, usr.LastName, usr.Email, usr.PasswordHash, usr.RoleID, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, trapConstraintErr(err, user.ErrEmailExists, "inserting user")
	}
	return repo.GetUserByID(ctx, id)
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	query := `
	SELECT ` + userCols + `
	FROM users u
	JOIN roles r ON r.id = u.role_id
	WHERE u.id = $1`

	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, query, id); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user by id")
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	query := `
	SELECT ` + userCols + `
	FROM users u
	JOIN roles r ON r.id = u.role_id
	WHERE u.email = $1`

	var usr user.User
	if err := repo.db.GetContext(ctx, &usr, query, email); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "selecting user by email")
	}
	return usr, nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, args core.ListArgs) ([]user.User, int, error) {
	whereClause, vals := buildWhere("u", args.Where)

	countQuery, countArgs, err := bindQuery(repo.db, `SELECT count(*) FROM users u`+whereClause, vals)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := repo.db.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	query := `
	SELECT ` + userCols + `
	FROM users u
	JOIN roles r ON r.id = u.role_id` + whereClause + `
	ORDER BY u.id` + pageClause(args)
	query, queryArgs, err := bindQuery(repo.db, query, vals)
	if err != nil {
		return nil, 0, err
	}

	usrs := make([]user.User, 0)
	if err := repo.db.SelectContext(ctx, &usrs, query, queryArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "querying users")
	}
	return usrs, count, nil
}

// UpdateUser only touches the provided fields; a zero RoleID and an empty
// PasswordHash keep the stored values.
func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	sets := []string{"first_name = ?", "last_name = ?", "email = ?", "updated_at = ?"}
	vals := []interface{}{usr.FirstName, usr.LastName, usr.Email, usr.UpdatedAt}
	if usr.RoleID > 0 {
		sets = append(sets, "role_id = ?")
		vals = append(vals, usr.RoleID)
	}
	if len(usr.PasswordHash) > 0 {
		sets = append(sets, "password_hash = ?")
		vals = append(vals, usr.PasswordHash)
	}
	vals = append(vals, usr.ID)

	query, args, err := bindQuery(repo.db,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = ? RETURNING id`, strings.Join(sets, ", ")), vals)
	if err != nil {
		return user.User{}, err
	}

	var id int
	if err := repo.db.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, trapConstraintErr(err, user.ErrEmailExists, "updating user")
	}
	return repo.GetUserByID(ctx, id)
}

func (repo *userRepository) DeleteUser(ctx context.Context, id int) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "deleting user")
	} else if n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo *userRepository) GetRoleByName(ctx context.Context, name policy.Role) (user.Role, error) {
	var role user.Role
	if err := repo.db.GetContext(ctx, &role, `SELECT id, name FROM roles WHERE name = $1`, name); err != nil {
		return user.Role{}, trapNoRowsErr(err, user.ErrRoleNotFound, "selecting role by name")
	}
	return role, nil
}

func (repo *userRepository) QueryRoles(ctx context.Context) ([]user.Role, error) {
	roles := make([]user.Role, 0)
	if err := repo.db.SelectContext(ctx, &roles, `SELECT id, name FROM roles ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying roles")
	}
	return roles, nil
}

func (repo *userRepository) EnsureRole(ctx context.Context, name policy.Role) (user.Role, error) {
	query := `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`
	if _, err := repo.db.ExecContext(ctx, query, name); err != nil {
		return user.Role{}, errors.Wrap(err, "ensuring role")
	}
	return repo.GetRoleByName(ctx, name)
}
