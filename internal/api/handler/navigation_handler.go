package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nestmarket/session-gateway/internal/core/ports"
)

type NavigationHandler struct {
	navigator ports.Navigator
}

func NewNavigationHandler(navigator ports.Navigator) *NavigationHandler {
	return &NavigationHandler{navigator: navigator}
}

// Menu returns the menu visible to the current role and the entry to
// highlight for the page at ?path=.
//
// @Summary      Role-filtered navigation
// @Tags         navigation
// @Produce      json
// @Param        path  query     string  false  "Current page path"
// @Success      200   {object}  navigationResponse
// @Router       /navigation [get]
func (h *NavigationHandler) Menu(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	role := sess.Role()
	items, active := h.navigator.Menu(role, c.QueryParam("path"))
	return c.JSON(http.StatusOK, navigationResponse{
		Role:      role.String(),
		ActiveKey: active,
		Items:     toMenuResponse(items),
	})
}
