package portfolio

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestAllowedImageHost(t *testing.T) {
	tests := []struct {
		host, public string
		want         bool
	}{
		{"pub-123.r2.dev", "", true},
		{"r2.dev", "", true},
		{"acct.r2.cloudflarestorage.com", "", true},
		{"PUB.R2.DEV", "", true},
		{"media.example.com", "media.example.com", true},
		{"cdn.media.example.com", "media.example.com", true},
		{"evil-r2.dev", "", false},
		{"r2.dev.evil.com", "", false},
		{"example.com", "media.example.com", false},
		{"media.example.com", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, allowedImageHost(tt.host, tt.public), "%s / %s", tt.host, tt.public)
	}
}

func TestImageProxy(t *testing.T) {
	var seen *http.Request
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		switch r.URL.Path {
		case "/missing.jpg":
			return &http.Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(strings.NewReader("")), Header: http.Header{}}, nil
		case "/down.jpg":
			return nil, errors.New("connection reset")
		}
		h := http.Header{}
		if r.URL.Path == "/a.png" {
			h.Set("Content-Type", "image/png")
		}
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("IMAGEDATA")), Header: h}, nil
	})
	env := newTestEnv(t,
		withOption(WithHTTPClient(&http.Client{Transport: transport})),
		withConfig(func(c *SiteConfig) { c.Storage.PublicURL = "https://media.example.com" }),
	)

	resp, err := env.client.Get(env.server.URL + "/api/image-proxy?url=https%3A%2F%2Fpub.r2.dev%2Fa.png")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "IMAGEDATA", string(body))
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Cache-Control"), "immutable")
	assert.Equal(t, proxyUserAgent, seen.Header.Get("User-Agent"))

	resp, err = env.client.Get(env.server.URL + "/api/image-proxy?url=https%3A%2F%2Fmedia.example.com%2Fb.jpg")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusBadRequest},
		{"?url=not-a-url", http.StatusBadRequest},
		{"?url=ftp%3A%2F%2Fpub.r2.dev%2Fa.jpg", http.StatusBadRequest},
		{"?url=https%3A%2F%2Fevil.com%2Fa.jpg", http.StatusForbidden},
		{"?url=https%3A%2F%2Fpub.r2.dev%2Fmissing.jpg", http.StatusNotFound},
		{"?url=https%3A%2F%2Fpub.r2.dev%2Fdown.jpg", http.StatusBadGateway},
	}
	for _, tt := range tests {
		status, _ := env.get("/api/image-proxy" + tt.query)
		assert.Equal(t, tt.want, status, tt.query)
	}
}

func TestProxyImageURL(t *testing.T) {
	assert.Equal(t, "", ProxyImageURL("  ", ""))
	assert.Equal(t, "/img/a.jpg", ProxyImageURL("/img/a.jpg", ""))
	assert.Equal(t, "https://other.com/a.jpg", ProxyImageURL("https://other.com/a.jpg", ""))
	assert.Equal(t, "/api/image-proxy?url=https%3A%2F%2Fpub.r2.dev%2Fa.jpg", ProxyImageURL("https://pub.r2.dev/a.jpg", ""))
	assert.Equal(t, "/api/image-proxy?url=https%3A%2F%2Fmedia.example.com%2Fa.jpg", ProxyImageURL("https://media.example.com/a.jpg", "media.example.com"))

	proxied := "/api/image-proxy?url=x"
	assert.Equal(t, proxied, ProxyImageURL(proxied, ""))
}
