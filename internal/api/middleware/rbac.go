package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/volunteerhub/registration-api/internal/api/metrics"
	"github.com/volunteerhub/registration-api/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextKeyRole).(string)
			if _, ok := allowed[role]; !ok || role == "" {
				metrics.AuthRejectionsTotal.WithLabelValues("forbidden").Inc()
				return echo.NewHTTPError(http.StatusForbidden, "Access denied: insufficient role")
			}
			return next(c)
		}
	}
}

// AdminOnly admits only tokens carrying the admin role.
func AdminOnly() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin)
}
