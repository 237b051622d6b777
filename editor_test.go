package portfolio

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditorFormat(t *testing.T) {
	env := newTestEnv(t)
	env.login("Amanda")

	status, body := env.sendJSON(http.MethodPost, "/api/admin/editor/format", map[string]any{
		"content": "<p>Hello world</p>",
		"start":   6,
		"end":     11,
		"command": "bold",
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, "<p>Hello <b>world</b></p>", decodeJSON(t, body)["content"])

	status, body = env.sendJSON(http.MethodPost, "/api/admin/editor/format", map[string]any{
		"content":  "<p>Title</p>",
		"command":  "formatBlock",
		"argument": "h2",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<h2>Title</h2>", decodeJSON(t, body)["content"])

	status, body = env.sendJSON(http.MethodPost, "/api/admin/editor/format", map[string]any{
		"content": "<p>x</p>",
		"command": "fontSize",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Unsupported command", decodeJSON(t, body)["error"])
}

func TestEditorSync(t *testing.T) {
	env := newTestEnv(t)
	env.login("Amanda")

	status, body := env.sendJSON(http.MethodPost, "/api/admin/editor/sync", map[string]any{
		"content": `<p data-x="1">Hello</p><p>World</p>`,
		"caret":   map[string]any{"text": 2, "offset": 3},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	got := decodeJSON(t, body)
	assert.Equal(t, "<p>Hello</p><p>World</p>", got["content"])
	assert.Equal(t, true, got["changed"])
	assert.Equal(t, map[string]any{"text": float64(0), "offset": float64(3), "atRoot": false}, got["caret"])

	status, body = env.sendJSON(http.MethodPost, "/api/admin/editor/sync", map[string]any{
		"content": "<p>Hello</p>",
		"caret":   map[string]any{"text": 1, "offset": 2},
	})
	require.Equal(t, http.StatusOK, status)
	got = decodeJSON(t, body)
	assert.Equal(t, false, got["changed"])
	assert.Equal(t, float64(1), got["caret"].(map[string]any)["text"])
}

func TestEditorRequiresSession(t *testing.T) {
	env := newTestEnv(t)
	status, _ := env.sendJSON(http.MethodPost, "/api/admin/editor/format", map[string]any{"command": "bold"})
	assert.Equal(t, http.StatusUnauthorized, status)
}
