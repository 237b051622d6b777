package views

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/portfolio/project"
)

func TestProjectPage(t *testing.T) {
	p := project.Project{
		ID:      "1",
		Slug:    "hello",
		Title:   "Hello <World>",
		Author:  "Amanda",
		Date:    "Mar 3, 2025",
		Content: `<p data-path-to-node="1">Body</p>`,
	}
	more := []project.Project{{ID: "2", Slug: "other", Title: "Other"}}

	var buf bytes.Buffer
	require.NoError(t, Project(p, more, "https://example.com").Render(context.Background(), &buf))
	out := buf.String()

	assert.Contains(t, out, "<title>Hello &lt;World&gt;</title>")
	assert.Contains(t, out, "<p>Body</p>")
	assert.NotContains(t, out, "data-path-to-node")
	assert.Contains(t, out, `src="`+project.PlaceholderImage+`"`)
	assert.Contains(t, out, `<a href="https://example.com/portfolio/other/">Other</a>`)

	p.Image = "https://pub.r2.dev/a.jpg"
	buf.Reset()
	require.NoError(t, Project(p, nil, "https://example.com").Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), `src="/api/image-proxy?url=https%3A%2F%2Fpub.r2.dev%2Fa.jpg"`)
}

func TestErrorPages(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NotFound().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Page not found")

	buf.Reset()
	require.NoError(t, ServerError().Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Something went wrong")
}

func TestDefault(t *testing.T) {
	v := Default()
	assert.NotNil(t, v.Project)
	assert.NotNil(t, v.NotFound)
	assert.NotNil(t, v.ServerError)
	assert.Nil(t, v.Home)
	assert.Nil(t, v.AdminDashboard)
}
