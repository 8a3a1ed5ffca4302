package devnotes

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type tagRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: malformed login payload", ErrInvalid)
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.Username
	}
	emailOK := subtle.ConstantTimeCompare([]byte(identifier), []byte(a.Config.AdminEmail))
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(a.Config.AdminPassword))
	if emailOK&passOK != 1 {
		return fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	token, err := a.gate.Token()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AuthResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(a.gate.TTL().Seconds()),
	})
}

func (a *App) handleAdminListPosts(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}
	result, err := a.Store.QueryPosts(Filter{}, page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (a *App) handleAdminGetPost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	post, err := a.Store.GetPost(id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminCreatePost(c echo.Context) error {
	fields, err := bindPostFields(c)
	if err != nil {
		return err
	}
	post, err := a.Store.CreatePost(fields)
	if err != nil {
		return err
	}
	a.cache.Invalidate()
	return c.JSON(http.StatusCreated, post)
}

func (a *App) handleAdminUpdatePost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	fields, err := bindPostFields(c)
	if err != nil {
		return err
	}
	post, err := a.Store.UpdatePost(id, fields)
	if err != nil {
		return err
	}
	a.cache.Invalidate()
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminDeletePost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeletePost(id); err != nil {
		return err
	}
	a.cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleAdminPublishPost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	post, err := a.Store.PublishPost(id)
	if err != nil {
		return err
	}
	a.cache.Invalidate()
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminUnpublishPost(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	post, err := a.Store.UnpublishPost(id)
	if err != nil {
		return err
	}
	a.cache.Invalidate()
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminListTags(c echo.Context) error {
	return a.handleListTags(c)
}

func (a *App) handleAdminCreateTag(c echo.Context) error {
	req, err := bindTagRequest(c)
	if err != nil {
		return err
	}
	tag, err := a.Store.CreateTag(req.Name, req.Slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tag)
}

func (a *App) handleAdminUpdateTag(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	req, err := bindTagRequest(c)
	if err != nil {
		return err
	}
	tag, err := a.Store.UpdateTag(id, req.Name, req.Slug)
	if err != nil {
		return err
	}
	// Tag objects are denormalized into cached posts.
	a.cache.Invalidate()
	return c.JSON(http.StatusOK, tag)
}

func (a *App) handleAdminDeleteTag(c echo.Context) error {
	id, err := idParam(c)
	if err != nil {
		return err
	}
	if err := a.Store.DeleteTag(id); err != nil {
		return err
	}
	a.cache.Invalidate()
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleAdminSettings(c echo.Context) error {
	settings, err := a.Store.GetSettings()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func (a *App) handleAdminUpdateSettings(c echo.Context) error {
	var patch SettingsPatch
	if err := c.Bind(&patch); err != nil {
		return fmt.Errorf("%w: malformed settings payload", ErrInvalid)
	}
	settings, err := a.Store.PatchSettings(patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, settings)
}

func idParam(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, fmt.Errorf("%w: id %q is not a number", ErrInvalid, c.Param("id"))
	}
	return id, nil
}

func bindPostFields(c echo.Context) (PostFields, error) {
	var fields PostFields
	if err := c.Bind(&fields); err != nil {
		return PostFields{}, fmt.Errorf("%w: malformed post payload", ErrInvalid)
	}
	// The editor lets the slug stay blank; derive one from the title.
	if strings.TrimSpace(fields.Slug) == "" {
		fields.Slug = Slugify(fields.Title)
	}
	return fields, nil
}

func bindTagRequest(c echo.Context) (tagRequest, error) {
	var req tagRequest
	if err := c.Bind(&req); err != nil {
		return tagRequest{}, fmt.Errorf("%w: malformed tag payload", ErrInvalid)
	}
	if strings.TrimSpace(req.Slug) == "" {
		req.Slug = Slugify(req.Name)
	}
	return req, nil
}
