package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct{}

func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// List returns the last polled feed. A failed poll keeps the previous
// items and sets stale.
//
// @Summary      Notification feed
// @Tags         notifications
// @Produce      json
// @Success      200  {object}  feedResponse
// @Failure      403  {object}  errorResponse
// @Router       /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeedResponse(sess.Feed()))
}

// MarkRead marks one notification read upstream and returns the refreshed
// feed.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Param        id   path      string  true  "Notification ID"
// @Success      200  {object}  feedResponse
// @Failure      401  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "notification id is required")
	}
	if err := sess.MarkNotificationRead(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeedResponse(sess.Feed()))
}
