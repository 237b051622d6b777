package portfolio

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/portfolio/contentapi"
	"github.com/eringen/portfolio/project"
)

const moreProjects = 3

func (a *App) loadProjects(ctx context.Context) ([]project.Project, error) {
	records, err := a.API.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	return project.TransformAll(records), nil
}

// transformOne transforms a single fetched record, using key (the id or
// slug it was fetched by) as the id when the record carries none. The
// listing's positional ids never stand in for it.
func transformOne(rec project.Record, key string) project.Project {
	if rec.String("id") == "" && key != "" {
		rec["id"] = key
	}
	return project.Transform(rec, 1)
}

func (a *App) handleHome(c echo.Context) error {
	projects, err := a.loadProjects(c.Request().Context())
	if err != nil {
		log.WithError(err).Warn("home: could not load projects")
		projects = []project.Project{}
	}
	var view func() templ.Component
	if a.Views.Home != nil {
		view = func() templ.Component { return a.Views.Home(projects, a.Config.URL) }
	}
	return renderOr(c, http.StatusOK, view, map[string]any{"projects": projects})
}

func (a *App) handleProject(c echo.Context) error {
	ctx := c.Request().Context()
	key := c.Param("slug")

	all, err := a.loadProjects(ctx)
	if err != nil {
		log.WithError(err).Warn("project: could not load listing")
	}
	p, ok := project.Find(all, key)
	if !ok {
		rec, err := a.API.GetProjectBySlug(ctx, key)
		switch {
		case errors.Is(err, contentapi.ErrNotFound):
			return echo.ErrNotFound
		case err != nil:
			return err
		}
		p = transformOne(rec, key)
	}

	more := project.More(p, all, moreProjects)
	var view func() templ.Component
	if a.Views.Project != nil {
		view = func() templ.Component { return a.Views.Project(p, more, a.Config.URL) }
	}
	return renderOr(c, http.StatusOK, view, map[string]any{"project": p, "more": more})
}

func (a *App) handleAPIProjects(c echo.Context) error {
	ctx := c.Request().Context()
	id := strings.TrimSpace(c.QueryParam("id"))
	slug := strings.TrimSpace(c.QueryParam("slug"))

	switch {
	case slug != "":
		rec, err := a.API.GetProjectBySlug(ctx, slug)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "data": transformOne(rec, slug)})
	case id != "":
		rec, err := a.API.GetProject(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "data": transformOne(rec, id)})
	}

	projects, err := a.loadProjects(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "projects": projects})
}

func (a *App) handleSitemap(c echo.Context) error {
	projects, err := a.loadProjects(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, projects)
}

func (a *App) handleFeed(c echo.Context) error {
	projects, err := a.loadProjects(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, projects)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

// errorStatus maps an error to a response status and a message safe to
// show to the client.
func errorStatus(err error) (int, string) {
	var he *echo.HTTPError
	var apiErr *contentapi.APIError
	var urlErr *url.Error
	switch {
	case errors.As(err, &he):
		if msg, ok := he.Message.(string); ok {
			return he.Code, msg
		}
		return he.Code, http.StatusText(he.Code)
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case errors.Is(err, ErrStorageNotConfigured):
		return http.StatusInternalServerError, "Media storage is not configured"
	case errors.Is(err, contentapi.ErrNotConfigured):
		return http.StatusInternalServerError, "Content API is not configured"
	case errors.Is(err, contentapi.ErrInvalidResponse):
		return http.StatusInternalServerError, "Invalid response from server"
	case errors.Is(err, contentapi.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, contentapi.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.As(err, &apiErr):
		return apiErr.HTTPStatus(), apiErr.Message
	case errors.As(err, &urlErr):
		return http.StatusBadGateway, "Content API unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := errorStatus(err)
	if code >= 500 {
		log.WithError(err).WithField("uri", c.Request().RequestURI).Error("server error")
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		_ = jsonError(c, code, msg)
		return
	}

	switch {
	case code == http.StatusNotFound && a.Views.NotFound != nil:
		_ = RenderStatus(c, code, a.Views.NotFound())
	case code >= 500 && a.Views.ServerError != nil:
		_ = RenderStatus(c, code, a.Views.ServerError())
	default:
		_ = jsonError(c, code, msg)
	}
}
