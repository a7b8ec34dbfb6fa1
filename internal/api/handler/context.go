package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nestmarket/session-gateway/internal/api/middleware"
	"github.com/nestmarket/session-gateway/internal/core/ports"
)

// ctxSession returns the façade attached by middleware.Session. Its absence
// means the route was registered without the middleware.
func ctxSession(c echo.Context) (ports.Session, error) {
	sess, _ := c.Get(middleware.ContextKeySession).(ports.Session)
	if sess == nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "session not resolved")
	}
	return sess, nil
}

// bindAndValidate binds the body into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
