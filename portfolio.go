// Package portfolio is a project portfolio site with an admin panel, built
// with Echo and templ. Projects and admin accounts live behind a remote
// content API; uploaded media lives in an S3-compatible bucket.
//
// Callers provide their own templ templates via the ViewFuncs struct.
// Any view left nil falls back to a JSON response.
package portfolio

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/portfolio/contentapi"
	"github.com/eringen/portfolio/project"
	"github.com/eringen/portfolio/storage"
)

var log = logrus.WithField("component", "portfolio")

// ViewFuncs holds caller-provided templ components for the HTML pages.
type ViewFuncs struct {
	Home           func(projects []project.Project, siteURL string) templ.Component
	Project        func(p project.Project, more []project.Project, siteURL string) templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(data AdminDashboardData) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
}

// MediaStore stores uploaded files and removes them again.
type MediaStore interface {
	Upload(ctx context.Context, obj storage.Object, folder string) (storage.Uploaded, error)
	Delete(ctx context.Context, url string) bool
	DeleteAll(ctx context.Context, urls []string) (deleted, failed int)
}

// App wires the content API, media storage, handlers, middleware and views.
type App struct {
	Config SiteConfig
	Echo   *echo.Echo
	Views  ViewFuncs
	API    *contentapi.Client
	Media  MediaStore

	httpClient   *http.Client
	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	staticDir    string
	ready        bool
}

// New creates an App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     views,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Setup validates the config, connects the backends and registers
// middleware and routes. Start calls it; tests call it directly.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.Validate(); err != nil {
		return err
	}
	configureLogging(a.Config)

	if a.API == nil {
		opts := []contentapi.Option{contentapi.WithTimeout(a.Config.ContentAPITimeout)}
		if a.Config.ContentAPIKey != "" {
			opts = append(opts, contentapi.WithAPIKey(a.Config.ContentAPIKey))
		}
		a.API = contentapi.New(a.Config.ContentAPIURL, opts...)
	}

	if a.Media == nil && a.Config.Storage.Configured() {
		bucket, err := storage.New(ctx, a.Config.Storage)
		if err != nil {
			return fmt.Errorf("portfolio: init storage: %w", err)
		}
		a.Media = bucket
	}
	if a.Media == nil {
		log.Warn("media storage is not configured; uploads are disabled")
	}

	if a.httpClient == nil {
		a.httpClient = &http.Client{Timeout: a.Config.ImageProxyTimeout}
	}

	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start(ctx context.Context) error {
	if err := a.Setup(ctx); err != nil {
		return err
	}
	log.WithField("addr", a.Config.Addr).Info("starting server")
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.staticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	// Public routes
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/", a.handleHome)
	e.GET("/portfolio/:slug/", a.handleProject)
	e.GET("/api/projects", a.handleAPIProjects)
	e.GET("/api/image-proxy", a.handleImageProxy)

	// Auth
	e.POST("/api/auth/login", a.handleLogin)
	e.POST("/api/auth/logout", handleLogout)
	e.GET("/api/auth/me", handleMe)

	// Admin pages
	e.GET("/admin/", a.handleAdmin)

	admin := e.Group("/api/admin", requireUser)
	admin.GET("/projects", a.handleAdminListProjects)
	admin.POST("/projects", a.handleAdminCreateProject)
	admin.PUT("/projects", a.handleAdminUpdateProject)
	admin.DELETE("/projects", a.handleAdminDeleteProject)
	admin.POST("/upload", a.handleUpload)
	admin.POST("/delete-images", a.handleDeleteImages)
	admin.POST("/editor/format", handleEditorFormat)
	admin.POST("/editor/sync", handleEditorSync)

	users := admin.Group("/users")
	users.GET("/profile", a.handleProfile)
	users.POST("/update-password", a.handleUpdatePassword)
	users.POST("/update-username", a.handleUpdateUsername)
	users.POST("/add-admin", a.handleAddAdmin)
	users.POST("/profile-photo", a.handleProfilePhoto)
	users.GET("/profile-photo-by-username", a.handleProfilePhotoByUsername)
}

// storageHost is the host of the public media URL, if one is configured.
func (a *App) storageHost() string {
	u, err := url.Parse(a.Config.Storage.PublicURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		logrus.Fatalf("portfolio: required environment variable %s is not set", key)
	}
	return v
}
