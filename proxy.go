package portfolio

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const (
	proxyUserAgent   = "Mozilla/5.0 (compatible; ImageProxy/1.0)"
	maxProxiedImage  = 20 << 20
	proxyPath        = "/api/image-proxy"
	defaultImageType = "image/jpeg"
)

var storageHostSuffixes = []string{"r2.dev", "r2.cloudflarestorage.com"}

// allowedImageHost reports whether host is a storage host: one of the known
// bucket domains, the configured public host, or a subdomain of either.
func allowedImageHost(host, publicHost string) bool {
	host = strings.ToLower(host)
	allowed := storageHostSuffixes
	if publicHost != "" {
		allowed = append(allowed[:len(allowed):len(allowed)], strings.ToLower(publicHost))
	}
	for _, h := range allowed {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func (a *App) handleImageProxy(c echo.Context) error {
	raw := strings.TrimSpace(c.QueryParam("url"))
	if raw == "" {
		return jsonError(c, http.StatusBadRequest, "URL parameter is required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return jsonError(c, http.StatusBadRequest, "Invalid URL format")
	}
	if !allowedImageHost(u.Hostname(), a.storageHost()) {
		return jsonError(c, http.StatusForbidden, "URL not allowed")
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, u.String(), nil)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid URL format")
	}
	req.Header.Set("User-Agent", proxyUserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("url", u.String()).Warn("image proxy fetch failed")
		return jsonError(c, http.StatusBadGateway, "Failed to fetch image")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithFields(logrus.Fields{"url": u.String(), "status": resp.StatusCode}).Warn("image proxy upstream error")
		return jsonError(c, resp.StatusCode, "Failed to fetch image: "+http.StatusText(resp.StatusCode))
	}

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = defaultImageType
	}
	h := c.Response().Header()
	h.Set("Cache-Control", "public, max-age=31536000, immutable")
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET")
	return c.Stream(http.StatusOK, contentType, io.LimitReader(resp.Body, maxProxiedImage))
}

// ProxyImageURL rewrites a storage URL to go through the image proxy. Local
// paths, already proxied URLs and foreign hosts are returned unchanged.
func ProxyImageURL(imageURL, publicHost string) string {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" || strings.HasPrefix(imageURL, "/") || strings.Contains(imageURL, proxyPath) {
		return imageURL
	}
	u, err := url.Parse(imageURL)
	if err != nil || u.Host == "" {
		return imageURL
	}
	if !allowedImageHost(u.Hostname(), publicHost) {
		return imageURL
	}
	return proxyPath + "?url=" + url.QueryEscape(imageURL)
}
