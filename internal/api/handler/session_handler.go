package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SessionHandler exposes the client's identity: who is signed in, login,
// profile edits, logout and the handoff to the management app.
type SessionHandler struct{}

func NewSessionHandler() *SessionHandler {
	return &SessionHandler{}
}

// Get returns the current session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess.Role(), sess.Session()))
}

// Login records the token and user record produced by the login form.
// remember=true keeps the session across browser restarts.
//
// @Summary      Record a login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Token and user record"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req loginRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := sess.Login(c.Request().Context(), req.Token, toUserRecord(req.User), tierFor(req.Remember)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess.Role(), sess.Session()))
}

// UpdateUser replaces the stored user record after a profile edit.
//
// @Summary      Update the stored profile
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      userRequest  true  "User record"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /session/user [put]
func (h *SessionHandler) UpdateUser(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req userRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := sess.UpdateUser(c.Request().Context(), toUserRecord(&req)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess.Role(), sess.Session()))
}

// Logout signs the client out here and, best effort, in the management app.
//
// @Summary      Log out
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	if err := sess.Logout(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess.Role(), sess.Session()))
}

// Handoff redirects the browser to the management app with the session
// token attached.
//
// @Summary      Open the management app
// @Tags         session
// @Success      302
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /session/handoff [get]
func (h *SessionHandler) Handoff(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	target, err := sess.HandoffURL()
	if err != nil {
		return err
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Redirect(http.StatusFound, target)
}
