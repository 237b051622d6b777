package portfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eringen/portfolio/storage"
)

// fakeContentAPI answers content API actions from a table of handlers and
// records every payload it receives.
type fakeContentAPI struct {
	mu       sync.Mutex
	calls    []map[string]any
	handlers map[string]func(payload map[string]any) (int, any)
}

func (f *fakeContentAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	_ = json.NewDecoder(r.Body).Decode(&payload)
	action, _ := payload["action"].(string)

	f.mu.Lock()
	f.calls = append(f.calls, payload)
	h := f.handlers[action]
	f.mu.Unlock()

	status, body := http.StatusOK, any(map[string]any{"success": false, "error": "unknown action"})
	if h != nil {
		status, body = h(payload)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeContentAPI) on(action string, h func(map[string]any) (int, any)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[action] = h
}

func (f *fakeContentAPI) callsFor(action string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, c := range f.calls {
		if c["action"] == action {
			out = append(out, c)
		}
	}
	return out
}

func reply(body any) func(map[string]any) (int, any) {
	return func(map[string]any) (int, any) { return http.StatusOK, body }
}

// fakeMedia is an in-memory MediaStore.
type fakeMedia struct {
	mu       sync.Mutex
	uploads  []storage.Object
	folders  []string
	deleted  []string
	failURLs map[string]bool
}

func (m *fakeMedia) Upload(_ context.Context, obj storage.Object, folder string) (storage.Uploaded, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, obj)
	m.folders = append(m.folders, folder)
	key := folder + "/" + obj.Name
	return storage.Uploaded{URL: "https://pub.r2.dev/" + key, Key: key}, nil
}

func (m *fakeMedia) Delete(_ context.Context, u string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failURLs[u] {
		return false
	}
	m.deleted = append(m.deleted, u)
	return true
}

func (m *fakeMedia) DeleteAll(ctx context.Context, urls []string) (deleted, failed int) {
	for _, u := range urls {
		if m.Delete(ctx, u) {
			deleted++
		} else {
			failed++
		}
	}
	return deleted, failed
}

func (m *fakeMedia) deletedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]string(nil), m.deleted...)
	sort.Strings(out)
	return out
}

type testEnv struct {
	t      *testing.T
	app    *App
	api    *fakeContentAPI
	media  *fakeMedia
	server *httptest.Server
	client *http.Client
}

type envOption func(*SiteConfig, *[]Option)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	api := &fakeContentAPI{handlers: map[string]func(map[string]any) (int, any){}}
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	media := &fakeMedia{failURLs: map[string]bool{}}
	cfg := SiteConfig{
		Name:          "Test Portfolio",
		URL:           "https://example.com",
		ContentAPIURL: apiServer.URL,
		SessionSecret: "test-secret-test-secret-test-sec",
		LogLevel:      "error",
	}
	appOpts := []Option{WithMediaStore(media)}
	for _, o := range opts {
		o(&cfg, &appOpts)
	}

	app := New(cfg, ViewFuncs{}, appOpts...)
	require.NoError(t, app.Setup(context.Background()))

	server := httptest.NewServer(app.Echo)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		t:      t,
		app:    app,
		api:    api,
		media:  media,
		server: server,
		client: &http.Client{Jar: jar},
	}
}

// csrf returns the CSRF cookie value, fetching a page first if needed.
func (e *testEnv) csrf() string {
	e.t.Helper()
	u, _ := url.Parse(e.server.URL)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == "_csrf" {
			return c.Value
		}
	}
	resp, err := e.client.Get(e.server.URL + "/api/auth/me")
	require.NoError(e.t, err)
	resp.Body.Close()
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == "_csrf" {
			return c.Value
		}
	}
	e.t.Fatal("no csrf cookie issued")
	return ""
}

func (e *testEnv) send(method, path, contentType string, body io.Reader) (int, []byte) {
	e.t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(e.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if method != http.MethodGet {
		req.Header.Set("X-CSRF-Token", e.csrf())
	}
	resp, err := e.client.Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, out
}

func (e *testEnv) get(path string) (int, []byte) {
	return e.send(http.MethodGet, path, "", nil)
}

func (e *testEnv) sendJSON(method, path string, body any) (int, []byte) {
	e.t.Helper()
	b, err := json.Marshal(body)
	require.NoError(e.t, err)
	return e.send(method, path, "application/json", bytes.NewReader(b))
}

func (e *testEnv) sendFile(path string, fields map[string]string, name string, data []byte) (int, []byte) {
	e.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(e.t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("file", name)
	require.NoError(e.t, err)
	_, err = fw.Write(data)
	require.NoError(e.t, err)
	require.NoError(e.t, w.Close())
	return e.send(http.MethodPost, path, w.FormDataContentType(), &buf)
}

// login signs in as a user whose display name is name.
func (e *testEnv) login(name string) {
	e.t.Helper()
	e.api.on("login", func(p map[string]any) (int, any) {
		if p["password"] != "secret" {
			return http.StatusOK, map[string]any{"valid": false}
		}
		return http.StatusOK, map[string]any{
			"valid": true,
			"user":  map[string]any{"id": "7", "email": p["email"], "username": name},
		}
	})
	status, body := e.sendJSON(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "amanda@example.com", "password": "secret",
	})
	require.Equal(e.t, http.StatusOK, status, string(body))
}

func decodeJSON(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m), string(b))
	return m
}

func withConfig(fn func(*SiteConfig)) envOption {
	return func(c *SiteConfig, _ *[]Option) { fn(c) }
}

func withOption(o Option) envOption {
	return func(_ *SiteConfig, opts *[]Option) { *opts = append(*opts, o) }
}
