package dummydb

import (
	"context"
	"fmt"
	"sort"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/policy"
	"github.com/mwalimu/shule/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, exclUsers ...user.User) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.checkEmailUniqueness(email, exclUsers...)
}

func (repo *userRepository) checkEmailUniqueness(email string, exclUsers ...user.User) error {
	excluded := make(map[int]struct{}, len(exclUsers))
	for _, usr := range exclUsers {
		excluded[usr.ID] = struct{}{}
	}
	for _, usr := range repo.db.users {
		if _, skip := excluded[usr.ID]; skip {
			continue
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkEmailUniqueness(usr.Email); err != nil {
		return user.User{}, err
	}
	role, ok := repo.db.roles[usr.RoleID]
	if !ok {
		return user.User{}, core.NewForeignKeyError(fmt.Sprintf("referenced record does not exist (role %d)", usr.RoleID))
	}

	repo.db.userSeq++
	usr.ID = repo.db.userSeq
	usr.RoleName = role.Name
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(ctx context.Context, args core.ListArgs) ([]user.User, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	all := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		usr := usr
		if matches(args.Where, func(key string) interface{} {
			switch key {
			case "id":
				return usr.ID
			case "role_id":
				return usr.RoleID
			case "email":
				return usr.Email
			}
			return nil
		}) {
			all = append(all, usr)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	lo, hi := pageBounds(len(all), args)
	return all[lo:hi], len(all), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cur, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.checkEmailUniqueness(usr.Email, cur); err != nil {
		return user.User{}, err
	}

	cur.FirstName = usr.FirstName
	cur.LastName = usr.LastName
	cur.Email = usr.Email
	cur.UpdatedAt = usr.UpdatedAt
	if usr.RoleID > 0 {
		role, ok := repo.db.roles[usr.RoleID]
		if !ok {
			return user.User{}, core.NewForeignKeyError(fmt.Sprintf("referenced record does not exist (role %d)", usr.RoleID))
		}
		cur.RoleID = role.ID
		cur.RoleName = role.Name
	}
	if len(usr.PasswordHash) > 0 {
		cur.PasswordHash = usr.PasswordHash
	}

	repo.db.users[cur.ID] = cur
	return cur, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)
	return nil
}

func (repo *userRepository) GetRoleByName(ctx context.Context, name policy.Role) (user.Role, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, role := range repo.db.roles {
		if role.Name == name {
			return role, nil
		}
	}
	return user.Role{}, user.ErrRoleNotFound
}

func (repo *userRepository) QueryRoles(ctx context.Context) ([]user.Role, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	roles := make([]user.Role, 0, len(repo.db.roles))
	for _, role := range repo.db.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (repo *userRepository) EnsureRole(ctx context.Context, name policy.Role) (user.Role, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, role := range repo.db.roles {
		if role.Name == name {
			return role, nil
		}
	}
	repo.db.roleSeq++
	role := user.Role{ID: repo.db.roleSeq, Name: name}
	repo.db.roles[role.ID] = role
	return role, nil
}
