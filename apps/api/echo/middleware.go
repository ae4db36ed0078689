package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/shule/core/policy"
)

// requireAction guards a route behind the role policy. An unresolvable
// identity is an authentication failure, never a denial.
func requireAction(action policy.Action) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ident, err := getContextIdentity(ctx)
			if err != nil {
				return errors.Wrap(err, "resolving identity")
			}
			if !policy.Allowed(ident.Role, action) {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
