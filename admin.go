package portfolio

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/portfolio/contentapi"
	"github.com/eringen/portfolio/project"
	"github.com/eringen/portfolio/richtext"
)

func (a *App) handleAdmin(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		var view func() templ.Component
		if a.Views.AdminLogin != nil {
			view = func() templ.Component { return a.Views.AdminLogin(false, CsrfToken(c)) }
		}
		return renderOr(c, http.StatusOK, view, map[string]any{"authenticated": false})
	}

	data, err := a.dashboardData(c.Request().Context(), user, c.QueryParam("mine") == "1", c.QueryParam("q"))
	if err != nil {
		return err
	}
	data.CSRFToken = CsrfToken(c)

	var view func() templ.Component
	if a.Views.AdminDashboard != nil {
		view = func() templ.Component { return a.Views.AdminDashboard(data) }
	}
	return renderOr(c, http.StatusOK, view, data)
}

func (a *App) dashboardData(ctx context.Context, user User, mine bool, query string) (AdminDashboardData, error) {
	all, err := a.loadProjects(ctx)
	if err != nil {
		return AdminDashboardData{}, err
	}
	avatars := a.resolveAvatars(ctx, all)

	filter := project.Filter{Mine: mine, Username: user.Name, Query: query}
	rows := make([]DashboardProject, 0, len(all))
	for _, p := range filter.Apply(all) {
		if avatar, ok := avatars[p.Author]; ok {
			p.Avatar = avatar
		}
		rows = append(rows, DashboardProject{
			Project:      p,
			DisplayImage: project.ResolveDisplayImage(p.Image),
			CanEdit:      project.CanEdit(p, user.Name),
		})
	}
	return AdminDashboardData{
		User:     user,
		Projects: rows,
		Total:    len(all),
		Mine:     mine,
		Query:    strings.TrimSpace(query),
	}, nil
}

// resolveAvatars looks up the profile photo of every distinct author
// concurrently. Lookups that fail, time out or come back empty are left out
// so the record's own avatar is kept.
func (a *App) resolveAvatars(ctx context.Context, projects []project.Project) map[string]string {
	authors := make(map[string]struct{})
	for _, p := range projects {
		if name := strings.TrimSpace(p.Author); name != "" {
			authors[name] = struct{}{}
		}
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		avatars = make(map[string]string, len(authors))
	)
	for name := range authors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lookupCtx, cancel := context.WithTimeout(ctx, a.Config.AvatarLookupTimeout)
			defer cancel()

			photo, err := a.API.GetUserProfilePhoto(lookupCtx, name)
			if err != nil {
				log.WithError(err).WithField("author", name).Debug("avatar lookup failed")
				return
			}
			if photo = strings.TrimSpace(photo); photo == "" {
				return
			}
			mu.Lock()
			avatars[name] = photo
			mu.Unlock()
		}()
	}
	wg.Wait()
	return avatars
}

func (a *App) handleAdminListProjects(c echo.Context) error {
	ctx := c.Request().Context()
	if id := strings.TrimSpace(c.QueryParam("id")); id != "" {
		rec, err := a.API.GetProject(ctx, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{"success": true, "data": rec})
	}
	records, err := a.API.ListProjects(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "projects": records})
}

type projectRequest struct {
	ID      any      `json:"id"`
	Title   string   `json:"judul"`
	Author  string   `json:"penulis"`
	Content string   `json:"konten"`
	Images  []string `json:"gambar"`
}

func (r projectRequest) id() string {
	return strings.TrimSpace(project.Record{"id": r.ID}.String("id"))
}

func (r projectRequest) input() contentapi.ProjectInput {
	images := make([]string, 0, len(r.Images))
	for _, u := range r.Images {
		if u = strings.TrimSpace(u); u != "" {
			images = append(images, u)
		}
	}
	return contentapi.ProjectInput{
		Title:   strings.TrimSpace(r.Title),
		Author:  strings.TrimSpace(r.Author),
		Content: strings.TrimSpace(richtext.Sanitize(r.Content)),
		Images:  images,
	}
}

func (r projectRequest) missingText() bool {
	return strings.TrimSpace(r.Title) == "" ||
		strings.TrimSpace(r.Author) == "" ||
		strings.TrimSpace(r.Content) == ""
}

func (a *App) handleAdminCreateProject(c echo.Context) error {
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.missingText() {
		return jsonError(c, http.StatusBadRequest, "Title, author and content are required")
	}

	data, err := a.API.AddProject(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Project saved",
		"data":    data,
	})
}

func (a *App) handleAdminUpdateProject(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	id := req.id()
	if id == "" || req.missingText() {
		return jsonError(c, http.StatusBadRequest, "ID, title, author and content are required")
	}

	rec, err := a.API.GetProject(ctx, id)
	if err != nil {
		return err
	}
	old := transformOne(rec, id)
	if !project.CanEdit(old, user.Name) {
		return ErrForbidden
	}

	in := req.input()
	data, err := a.API.UpdateProject(ctx, id, in)
	if err != nil {
		return err
	}

	if removed := difference(old.Images, in.Images); len(removed) > 0 {
		a.deleteMedia(ctx, removed, logrus.Fields{"project": id, "reason": "update"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Project updated",
		"data":    data,
	})
}

func (a *App) handleAdminDeleteProject(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	id := strings.TrimSpace(c.QueryParam("id"))
	if id == "" {
		return jsonError(c, http.StatusBadRequest, "Project ID is required")
	}

	rec, err := a.API.GetProject(ctx, id)
	switch {
	case errors.Is(err, contentapi.ErrNotFound):
		log.WithField("project", id).Warn("deleting project that could not be fetched")
	case err != nil:
		return err
	default:
		p := transformOne(rec, id)
		if !project.CanEdit(p, user.Name) {
			return ErrForbidden
		}
		if len(p.Images) > 0 {
			a.deleteMedia(ctx, p.Images, logrus.Fields{"project": id, "reason": "delete"})
		}
	}

	if err := a.API.DeleteProject(ctx, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Project and images deleted",
	})
}

// deleteMedia removes urls from storage, logging rather than failing.
func (a *App) deleteMedia(ctx context.Context, urls []string, fields logrus.Fields) (deleted, failed int) {
	if a.Media == nil {
		log.WithFields(fields).Warn("media storage not configured; leaving images in place")
		return 0, len(urls)
	}
	deleted, failed = a.Media.DeleteAll(ctx, urls)
	entry := log.WithFields(fields).WithFields(logrus.Fields{"deleted": deleted, "failed": failed})
	if failed > 0 {
		entry.Warn("some images could not be deleted")
	} else {
		entry.Info("deleted images")
	}
	return deleted, failed
}

// difference returns the entries of old that are not in current.
func difference(old, current []string) []string {
	keep := make(map[string]struct{}, len(current))
	for _, u := range current {
		keep[u] = struct{}{}
	}
	var out []string
	for _, u := range old {
		if _, ok := keep[u]; !ok {
			out = append(out, u)
		}
	}
	return out
}
