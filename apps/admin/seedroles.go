package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core/policy"
)

// seedRoles creates the fixed role set. Roles already present are left alone
// so the command can run on every deploy.
func (cli *commandLine) seedRoles() error {
	ctx := context.Background()
	for _, name := range policy.AllRoles {
		role, err := cli.repo.EnsureRole(ctx, name)
		if err != nil {
			return errors.Wrapf(err, "seeding role %q", name)
		}
		logger.Printf("role %q ready (id=%d)", role.Name, role.ID)
	}
	return nil
}
