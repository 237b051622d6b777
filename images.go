package portfolio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/portfolio/storage"
)

const (
	projectImageWidth = 1600
	profilePhotoWidth = 400
	jpegQuality       = 80
	maxUploadSize     = 10 << 20 // 10MB
)

var errNotAnImage = errors.New("portfolio: not a decodable image")

// processImage decodes an image from src, scales it down to maxWidth when it
// is wider, and re-encodes it as JPEG.
func processImage(src io.Reader, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotAnImage, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxWidth {
		newH := h * maxWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("portfolio: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// jpegName swaps the extension of name for .jpg.
func jpegName(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if base == "" || base == "." {
		base = "image"
	}
	return base + ".jpg"
}

// uploadFormImage reads the multipart field "file", downsizes it and stores
// it under folder. Client mistakes come back as *echo.HTTPError.
func (a *App) uploadFormImage(c echo.Context, folder string, maxWidth int) (storage.Uploaded, error) {
	if a.Media == nil {
		return storage.Uploaded{}, ErrStorageNotConfigured
	}

	file, err := c.FormFile("file")
	if err != nil {
		return storage.Uploaded{}, echo.NewHTTPError(http.StatusBadRequest, "File not found")
	}
	if file.Size > maxUploadSize {
		return storage.Uploaded{}, echo.NewHTTPError(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return storage.Uploaded{}, fmt.Errorf("portfolio: open upload: %w", err)
	}
	defer src.Close()

	data, err := processImage(io.LimitReader(src, maxUploadSize), maxWidth)
	if errors.Is(err, errNotAnImage) {
		return storage.Uploaded{}, echo.NewHTTPError(http.StatusBadRequest, "Invalid image")
	}
	if err != nil {
		return storage.Uploaded{}, err
	}

	up, err := a.Media.Upload(c.Request().Context(), storage.Object{
		Name:        jpegName(file.Filename),
		ContentType: "image/jpeg",
		Body:        data,
	}, folder)
	if err != nil {
		return storage.Uploaded{}, err
	}
	log.WithFields(logrus.Fields{
		"key":      up.Key,
		"original": file.Filename,
		"bytes":    len(data),
	}).Info("stored upload")
	return up, nil
}

func (a *App) handleUpload(c echo.Context) error {
	folder := strings.TrimSpace(c.FormValue("folder"))
	if folder == "" {
		folder = storage.FolderUploads
	}
	if strings.Contains(folder, "..") {
		return jsonError(c, http.StatusBadRequest, "Invalid folder")
	}
	width := projectImageWidth
	if folder == storage.FolderProfilePhotos {
		width = profilePhotoWidth
	}

	up, err := a.uploadFormImage(c, folder, width)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"url":     up.URL,
		"key":     up.Key,
	})
}

type deleteImagesRequest struct {
	URLs []string `json:"urls"`
}

func (a *App) handleDeleteImages(c echo.Context) error {
	var req deleteImagesRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	urls := make([]string, 0, len(req.URLs))
	for _, u := range req.URLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 {
		return jsonError(c, http.StatusBadRequest, "URLs array is required")
	}
	if a.Media == nil {
		return ErrStorageNotConfigured
	}

	deleted, failed := a.deleteMedia(c.Request().Context(), urls, logrus.Fields{"reason": "request"})
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("%d images deleted, %d failed", deleted, failed),
		"deleted": deleted,
		"failed":  failed,
	})
}
