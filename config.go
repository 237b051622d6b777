package portfolio

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/eringen/portfolio/contentapi"
	"github.com/eringen/portfolio/storage"
)

// SiteConfig holds all configuration for a portfolio site.
type SiteConfig struct {
	Name        string // Site name (default "Portfolio")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags
	Author      string // Author name for JSON-LD

	Addr string // Listen address (default ":3000")

	ContentAPIURL     string        // Script endpoint holding projects and accounts
	ContentAPIKey     string        // Sent as apiKey when set
	ContentAPITimeout time.Duration // Per-call timeout (default 15s)

	// Used for login only when ContentAPIURL is empty.
	AdminEmail    string
	AdminPassword string

	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	Storage storage.Config

	AvatarLookupTimeout time.Duration // Per-author profile photo lookup (default 3s)
	ImageProxyTimeout   time.Duration // Upstream fetch in the image proxy (default 15s)

	LogLevel  string // logrus level name (default "info")
	LogFormat string // "json" or "text" (default "text")
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Portfolio"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.ContentAPITimeout == 0 {
		c.ContentAPITimeout = 15 * time.Second
	}
	if c.AvatarLookupTimeout == 0 {
		c.AvatarLookupTimeout = 3 * time.Second
	}
	if c.ImageProxyTimeout == 0 {
		c.ImageProxyTimeout = 15 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
}

// Validate reports the first missing required setting.
func (c SiteConfig) Validate() error {
	if c.SessionSecret == "" {
		return errors.New("portfolio: SessionSecret is required")
	}
	if c.ContentAPIURL == "" && (c.AdminEmail == "" || c.AdminPassword == "") {
		return errors.New("portfolio: ContentAPIURL or AdminEmail and AdminPassword are required")
	}
	return nil
}

// ConfigFromEnv reads a SiteConfig from the environment, loading .env first
// when one exists.
func ConfigFromEnv() SiteConfig {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).Warn("could not load .env")
	}
	return SiteConfig{
		Name:          os.Getenv("SITE_NAME"),
		URL:           os.Getenv("SITE_URL"),
		Description:   os.Getenv("SITE_DESCRIPTION"),
		Author:        os.Getenv("SITE_AUTHOR"),
		Addr:          EnvOr("ADDR", ":3000"),
		ContentAPIURL: os.Getenv("DATABASE_API_URL"),
		ContentAPIKey: os.Getenv("DATABASE_API_KEY"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		CookieSecure:  envBool("COOKIE_SECURE", false),
		Storage: storage.Config{
			Endpoint:        os.Getenv("R2_ENDPOINT"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			PublicURL:       os.Getenv("R2_PUBLIC_URL"),
		},
		AvatarLookupTimeout: envDuration("AVATAR_LOOKUP_TIMEOUT", 3*time.Second),
		LogLevel:            os.Getenv("LOG_LEVEL"),
		LogFormat:           os.Getenv("LOG_FORMAT"),
	}
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func configureLogging(cfg SiteConfig) {
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	} else {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown log level, keeping default")
	}
	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithContentAPI replaces the client built from ContentAPIURL.
func WithContentAPI(c *contentapi.Client) Option {
	return func(a *App) {
		a.API = c
	}
}

// WithMediaStore replaces the bucket built from the Storage config.
func WithMediaStore(m MediaStore) Option {
	return func(a *App) {
		a.Media = m
	}
}

// WithHTTPClient sets the client the image proxy fetches with.
func WithHTTPClient(hc *http.Client) Option {
	return func(a *App) {
		a.httpClient = hc
	}
}
