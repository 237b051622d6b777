package portfolio

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/portfolio/richtext"
)

type formatRequest struct {
	Content  string `json:"content"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Command  string `json:"command"`
	Argument string `json:"argument"`
}

func handleEditorFormat(c echo.Context) error {
	var req formatRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}

	s := richtext.NewSurface(req.Content)
	s.Select(req.Start, req.End)
	if err := s.ApplyFormat(richtext.Command(req.Command), req.Argument); err != nil {
		if errors.Is(err, richtext.ErrUnsupportedCommand) {
			return jsonError(c, http.StatusBadRequest, "Unsupported command")
		}
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"content": s.Value()})
}

type syncRequest struct {
	Content string         `json:"content"`
	Caret   richtext.Caret `json:"caret"`
}

// handleEditorSync runs one user edit through the surface and returns the
// sanitized content and where the caret ended up.
func handleEditorSync(c echo.Context) error {
	var req syncRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}

	s := richtext.NewSurface("")
	s.SetCaret(req.Caret)
	content := ""
	s.OnChange(func(v string) { content = v })
	s.OnUserEdit(req.Content)

	return c.JSON(http.StatusOK, map[string]any{
		"content": content,
		"changed": content != req.Content,
		"caret":   s.Caret(),
	})
}
