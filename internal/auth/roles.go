package auth

import (
	"fmt"
	"net/http"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/servicedesk/ticket-service/internal/domain"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && keyMatch2(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

var defaultPolicies = [][]string{
	{string(domain.UserRoleAdmin), "/api/admin/*", "*"},
	{string(domain.UserRoleAgent), "/api/admin/sla", http.MethodGet},
}

// Enforcer decides role access to administrative routes.
type Enforcer struct {
	enforcer *casbin.Enforcer
	logger   *zap.Logger
}

// NewEnforcer loads the in-code model and role policy.
func NewEnforcer(logger *zap.Logger) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	if _, err := e.AddPolicies(defaultPolicies); err != nil {
		return nil, fmt.Errorf("load policies: %w", err)
	}
	return &Enforcer{enforcer: e, logger: logger}, nil
}

// Allowed reports whether role may perform method on path.
func (e *Enforcer) Allowed(role domain.UserRole, path, method string) bool {
	ok, err := e.enforcer.Enforce(string(role), path, method)
	if err != nil {
		e.logger.Error("permission check failed", zap.String("role", string(role)), zap.String("path", path), zap.Error(err))
		return false
	}
	return ok
}

// RequirePermission checks the principal's role against the request path
// and method.
func (e *Enforcer) RequirePermission() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if !e.Allowed(principal.Role, c.Path(), c.Method()) {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
