package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nestmarket/session-gateway/internal/core/domain"
	"github.com/nestmarket/session-gateway/internal/core/ports"
)

// ContextKeySession holds the request's ports.Session.
const ContextKeySession = "session"

// Session attaches the client's session façade. It must run after Client.
func Session(registry ports.SessionRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key, ok := c.Get(ContextKeyClient).(domain.ClientKey)
			if !ok {
				return echo.NewHTTPError(http.StatusInternalServerError, "client identity not resolved")
			}
			sess, err := registry.Acquire(c.Request().Context(), key)
			if err != nil {
				return err
			}
			c.Set(ContextKeySession, sess)
			return next(c)
		}
	}
}
