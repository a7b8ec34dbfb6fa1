package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/core/ports"
)

// RBAC lets the request through only when the session's current role is
// one of allowedRoles.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, _ := c.Get(ContextKeySession).(ports.Session)
			if sess == nil {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			if _, ok := allowed[sess.Role()]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// Authenticated is RBAC for every role except Guest.
func Authenticated() echo.MiddlewareFunc {
	var roles []domain.Role
	for _, r := range domain.Roles() {
		if r.Authenticated() {
			roles = append(roles, r)
		}
	}
	return RBAC(roles...)
}
