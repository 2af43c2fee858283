package middleware

import (
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"ProjectHub/internal/auth"
)

const rbacModel = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && keyMatch(r.obj, p.obj) && (r.act == p.act || p.act == "*")`

// Policies live in code rather than a csv next to the binary; the role
// surface is two roles and a handful of routes.
var policies = [][]string{
	{"user", "/auth/me", "GET"},
	{"admin", "/auth/accounts/*", "*"},
}

// NewEnforcer builds the casbin enforcer with the in-code model and
// policies. Admin inherits everything a user may do.
func NewEnforcer() (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}
	for _, p := range policies {
		if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, err
		}
	}
	if _, err := enforcer.AddGroupingPolicy("admin", "user"); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// Authorize enforces role-based access for the account the gate attached.
// Runs after RequireAuth.
func Authorize(enforcer *casbin.Enforcer, logger *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			account, ok := c.Get("account").(*auth.Account)
			if !ok || account == nil {
				return reject(c, auth.ErrTokenRequired)
			}
			allowed, err := enforcer.Enforce(string(account.Role), c.Path(), c.Request().Method)
			if err != nil {
				logger.Error("rbac enforcement error", zap.Error(err))
				return reject(c, auth.ErrForbidden)
			}
			if !allowed {
				return reject(c, auth.ErrForbidden)
			}
			return next(c)
		}
	}
}
