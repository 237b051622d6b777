// Package views holds the built-in pages used when a site supplies no
// templates of its own: the project page and the error pages. Everything
// else falls back to JSON.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/portfolio"
	"github.com/eringen/portfolio/project"
	"github.com/eringen/portfolio/richtext"
)

// Default returns the built-in view set.
func Default() portfolio.ViewFuncs {
	return portfolio.ViewFuncs{
		Project:     Project,
		NotFound:    NotFound,
		ServerError: ServerError,
	}
}

func page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title></head><body>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

func message(heading, text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<main><h1>%s</h1><p>%s</p><p><a href="/">Back to home</a></p></main>`,
			templ.EscapeString(heading), templ.EscapeString(text))
		return err
	})
}

// NotFound is the 404 page.
func NotFound() templ.Component {
	return page("Not found", message("Page not found", "The page you are looking for does not exist."))
}

// ServerError is the 5xx page.
func ServerError() templ.Component {
	return page("Server error", message("Something went wrong", "Please try again later."))
}

// Project renders one project with links to a few others.
func Project(p project.Project, more []project.Project, siteURL string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<main><article><header><h1>%s</h1><p>%s · %s</p></header><img src="%s" alt="%s">`,
			templ.EscapeString(p.Title),
			templ.EscapeString(p.Author),
			templ.EscapeString(p.Date),
			templ.EscapeString(portfolio.ProxyImageURL(project.ResolveDisplayImage(p.Image), "")),
			templ.EscapeString(p.Title),
		); err != nil {
			return err
		}
		if err := richtext.HTML(p.Content).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</article>`); err != nil {
			return err
		}
		if len(more) > 0 {
			if _, err := io.WriteString(w, `<aside><h2>More projects</h2><ul>`); err != nil {
				return err
			}
			for _, m := range more {
				if _, err := fmt.Fprintf(w, `<li><a href="%s">%s</a></li>`,
					templ.EscapeString(portfolio.ProjectURL(siteURL, m)),
					templ.EscapeString(m.Title)); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, `</ul></aside>`); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</main>`)
		return err
	})
	return page(p.Title, body)
}
