package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/policy"
	"github.com/mwalimu/shule/core/user"
)

// addAdmin updates or creates the admin account for the given email.
func (cli *commandLine) addAdmin(firstName, lastName, email, pwd string) error {
	ctx := context.Background()
	firstName = core.CleanString(firstName)
	lastName = core.CleanString(lastName)
	email = core.CleanString(email, true /* lower */)

	role, err := cli.repo.GetRoleByName(ctx, policy.RoleAdmin)
	if err != nil {
		return errors.Wrap(err, "finding admin role")
	}

	now := time.Now().UTC()
	usr, err := cli.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		usr = user.User{
			FirstName: firstName,
			LastName:  lastName,
			Email:     email,
			RoleID:    role.ID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.repo.CreateUser(ctx, usr)
		return err
	}

	if firstName != "" {
		usr.FirstName = firstName
	}
	if lastName != "" {
		usr.LastName = lastName
	}
	usr.RoleID = role.ID
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.repo.UpdateUser(ctx, usr)
	return err
}
