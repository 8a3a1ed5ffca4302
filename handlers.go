package devnotes

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (a *App) handleListPosts(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	filter := Filter{
		OnlyPublished: true,
		TagSlug:       c.QueryParam("tag"),
		Text:          c.QueryParam("q"),
	}
	posts, err := a.cache.Published()
	if err != nil {
		return err
	}
	result, err := queryPosts(posts, filter, page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.cache.Get(c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleListTags(c echo.Context) error {
	tags, err := a.Store.ListTags()
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []Tag{}
	}
	return c.JSON(http.StatusOK, tags)
}

func (a *App) handlePublicSettings(c echo.Context) error {
	settings, err := a.Store.GetSettings()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

// pageParams reads zero-based pagination parameters, defaulting to the
// first page of ten.
func pageParams(c echo.Context) (page, size int, err error) {
	page, err = intParam(c.QueryParam("page"), 0)
	if err != nil {
		return 0, 0, err
	}
	size, err = intParam(c.QueryParam("size"), 10)
	if err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

func intParam(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalid, raw)
	}
	return n, nil
}

// httpErrorHandler maps store error kinds to transport status codes and
// renders the JSON error shape the client expects.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case errors.Is(err, ErrNotFound):
		code, message = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrUnauthorized):
		code, message = http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrConflict):
		code, message = http.StatusConflict, err.Error()
	case errors.Is(err, ErrInvalid):
		code, message = http.StatusBadRequest, err.Error()
	default:
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = fmt.Sprintf("%v", he.Message)
		}
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]any{"message": message, "status": code})
}
