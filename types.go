package portfolio

import (
	"errors"

	"github.com/eringen/portfolio/project"
)

var (
	// ErrUnauthorized means the request carries no logged-in session.
	ErrUnauthorized = errors.New("portfolio: unauthorized")
	// ErrForbidden means the user may not modify the project.
	ErrForbidden = errors.New("portfolio: forbidden")
	// ErrStorageNotConfigured means no media store is available.
	ErrStorageNotConfigured = errors.New("portfolio: media storage not configured")
)

// User is the logged-in admin as kept in the session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}

// DashboardProject is one row of the admin dashboard.
type DashboardProject struct {
	project.Project
	DisplayImage string `json:"displayImage"`
	CanEdit      bool   `json:"canEdit"`
}

// AdminDashboardData is everything the dashboard view renders.
type AdminDashboardData struct {
	User      User               `json:"user"`
	Projects  []DashboardProject `json:"projects"`
	Total     int                `json:"total"`
	Mine      bool               `json:"mine"`
	Query     string             `json:"query"`
	CSRFToken string             `json:"-"`
}
