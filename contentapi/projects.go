package contentapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/eringen/portfolio/project"
)

// ProjectInput is the writable part of a project record. Content must
// already be sanitized.
type ProjectInput struct {
	Title   string
	Author  string
	Content string
	Images  []string
}

func (in ProjectInput) fields() map[string]any {
	images := in.Images
	if images == nil {
		images = []string{}
	}
	return map[string]any{
		"judul":   in.Title,
		"penulis": in.Author,
		"konten":  in.Content,
		"gambar":  images,
	}
}

// ListProjects returns every project record. Entries that are not objects
// are skipped.
func (c *Client) ListProjects(ctx context.Context) ([]project.Record, error) {
	const action = "getAllProjects"
	env, status, err := c.call(ctx, action, nil)
	if err != nil {
		return nil, err
	}
	items, ok := env.list("projects")
	if !ok {
		if env.text("error") != "" {
			return nil, env.failure(action, status, "")
		}
		return nil, fmt.Errorf("contentapi: %s: no projects list: %w", action, ErrInvalidResponse)
	}
	out := make([]project.Record, 0, len(items))
	for i, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			log.WithField("index", i).Warn("skipping project entry that is not an object")
			continue
		}
		out = append(out, project.Record(m))
	}
	return out, nil
}

// GetProject fetches one record by id.
func (c *Client) GetProject(ctx context.Context, id string) (project.Record, error) {
	return c.getProject(ctx, map[string]any{"id": id})
}

// GetProjectBySlug fetches one record by slug.
func (c *Client) GetProjectBySlug(ctx context.Context, slug string) (project.Record, error) {
	return c.getProject(ctx, map[string]any{"slug": slug})
}

func (c *Client) getProject(ctx context.Context, fields map[string]any) (project.Record, error) {
	const action = "getProject"
	env, _, err := c.call(ctx, action, fields)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("contentapi: %s: %s: %w", action, apiErr.Message, ErrNotFound)
		}
		return nil, err
	}
	data, ok := env.object("data")
	if !env.flag("success") || !ok {
		msg := env.text("error")
		if msg == "" {
			msg = "no data"
		}
		return nil, fmt.Errorf("contentapi: %s: %s: %w", action, msg, ErrNotFound)
	}
	return project.Record(data), nil
}

// AddProject creates a record and returns what the endpoint stored, which
// may be nil if it echoes nothing back.
func (c *Client) AddProject(ctx context.Context, in ProjectInput) (project.Record, error) {
	return c.write(ctx, "addProject", in.fields(), "failed to save project")
}

// UpdateProject replaces the record with the given id.
func (c *Client) UpdateProject(ctx context.Context, id string, in ProjectInput) (project.Record, error) {
	fields := in.fields()
	fields["id"] = id
	return c.write(ctx, "updateProject", fields, "failed to update project")
}

// DeleteProject removes the record with the given id.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	_, err := c.write(ctx, "deleteProject", map[string]any{"id": id}, "failed to delete project")
	return err
}

func (c *Client) write(ctx context.Context, action string, fields map[string]any, fallback string) (project.Record, error) {
	env, status, err := c.call(ctx, action, fields)
	if err != nil {
		return nil, err
	}
	if !env.flag("success") {
		return nil, env.failure(action, status, fallback)
	}
	data, _ := env.object("data")
	return project.Record(data), nil
}
