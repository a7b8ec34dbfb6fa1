package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// BookmarkHandler serves the in-memory bookmark set. Bookmarks live as
// long as the client's session is held and are never persisted.
type BookmarkHandler struct{}

func NewBookmarkHandler() *BookmarkHandler {
	return &BookmarkHandler{}
}

// List returns the listing IDs bookmarked in this session.
//
// @Summary      Bookmarked listing IDs
// @Tags         bookmarks
// @Produce      json
// @Success      200  {object}  bookmarksResponse
// @Router       /bookmarks [get]
func (h *BookmarkHandler) List(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bookmarksResponse{IDs: sess.Bookmarks()})
}

// Toggle flips the bookmark on a listing and reports its new state.
//
// @Summary      Toggle a bookmark
// @Tags         bookmarks
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  bookmarkToggleResponse
// @Router       /bookmarks/{id}/toggle [post]
func (h *BookmarkHandler) Toggle(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "listing id is required")
	}
	return c.JSON(http.StatusOK, bookmarkToggleResponse{ID: id, Bookmarked: sess.ToggleBookmark(id)})
}
