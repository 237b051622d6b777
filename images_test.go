package portfolio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImage(t *testing.T) {
	out, err := processImage(bytes.NewReader(pngBytes(t, 2000, 1000)), 1600)
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)
	assert.Equal(t, 800, cfg.Height)

	out, err = processImage(bytes.NewReader(pngBytes(t, 300, 200)), 400)
	require.NoError(t, err)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width, "smaller images keep their size")

	_, err = processImage(bytes.NewReader([]byte("not an image")), 400)
	assert.ErrorIs(t, err, errNotAnImage)
}

func TestJPEGName(t *testing.T) {
	assert.Equal(t, "photo.jpg", jpegName("photo.png"))
	assert.Equal(t, "archive.tar.jpg", jpegName("archive.tar.gz"))
	assert.Equal(t, "image.jpg", jpegName(".png"))
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	env.login("Amanda")

	status, body := env.sendFile("/api/admin/upload", map[string]string{"folder": "projects/images"}, "photo.png", pngBytes(t, 2000, 1000))
	require.Equal(t, http.StatusOK, status, string(body))
	got := decodeJSON(t, body)
	assert.Equal(t, true, got["success"])
	assert.Equal(t, "https://pub.r2.dev/projects/images/photo.jpg", got["url"])
	assert.Equal(t, "projects/images/photo.jpg", got["key"])

	require.Len(t, env.media.uploads, 1)
	obj := env.media.uploads[0]
	assert.Equal(t, "image/jpeg", obj.ContentType)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(obj.Body))
	require.NoError(t, err)
	assert.Equal(t, 1600, cfg.Width)

	status, _ = env.sendFile("/api/admin/upload", map[string]string{"folder": "profile-photos"}, "me.png", pngBytes(t, 1000, 1000))
	require.Equal(t, http.StatusOK, status)
	cfg, err = jpeg.DecodeConfig(bytes.NewReader(env.media.uploads[1].Body))
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Width)

	status, _ = env.sendFile("/api/admin/upload", nil, "x.png", pngBytes(t, 10, 10))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "uploads", env.media.folders[2])
}

func TestUploadRejects(t *testing.T) {
	env := newTestEnv(t)
	env.login("Amanda")

	status, body := env.sendFile("/api/admin/upload", nil, "notes.txt", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid image", decodeJSON(t, body)["error"])

	status, _ = env.sendFile("/api/admin/upload", map[string]string{"folder": "../etc"}, "x.png", pngBytes(t, 10, 10))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.sendJSON(http.MethodPost, "/api/admin/upload", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "File not found", decodeJSON(t, body)["error"])
	assert.Empty(t, env.media.uploads)
}

func TestUploadWithoutStorage(t *testing.T) {
	env := newTestEnv(t, withOption(WithMediaStore(nil)))
	env.login("Amanda")

	status, body := env.sendFile("/api/admin/upload", nil, "x.png", pngBytes(t, 10, 10))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Media storage is not configured", decodeJSON(t, body)["error"])
}

func TestDeleteImages(t *testing.T) {
	env := newTestEnv(t)
	env.login("Amanda")
	env.media.failURLs["https://pub.r2.dev/b.jpg"] = true

	status, body := env.sendJSON(http.MethodPost, "/api/admin/delete-images", map[string]any{"urls": []string{" "}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "URLs array is required", decodeJSON(t, body)["error"])

	status, body = env.sendJSON(http.MethodPost, "/api/admin/delete-images", map[string]any{
		"urls": []string{"https://pub.r2.dev/a.jpg", "https://pub.r2.dev/b.jpg"},
	})
	require.Equal(t, http.StatusOK, status)
	got := decodeJSON(t, body)
	assert.EqualValues(t, 1, got["deleted"])
	assert.EqualValues(t, 1, got["failed"])
	assert.Equal(t, "1 images deleted, 1 failed", got["message"])
}
