package portfolio

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/portfolio/contentapi"
	"github.com/eringen/portfolio/project"
	"github.com/eringen/portfolio/storage"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func (a *App) handleProfile(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	profile := contentapi.User{ID: user.ID, Email: user.Email, Username: user.Name, Name: user.Name}
	if u, err := a.API.GetUserByEmail(c.Request().Context(), user.Email); err == nil {
		profile = *u
	} else {
		log.WithError(err).WithField("email", user.Email).Warn("profile lookup failed, using session data")
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "user": profile})
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (a *App) handleUpdatePassword(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req passwordRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return jsonError(c, http.StatusBadRequest, "Current and new password are required")
	}
	if len([]rune(req.NewPassword)) < minPasswordLength {
		return jsonError(c, http.StatusBadRequest, "New password must be at least 6 characters")
	}

	if _, err := a.API.Login(ctx, user.Email, req.CurrentPassword); err != nil {
		if errors.Is(err, contentapi.ErrInvalidCredentials) {
			return jsonError(c, http.StatusUnauthorized, "Current password is incorrect")
		}
		return err
	}
	if err := a.API.UpdatePassword(ctx, user.Email, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Password updated"})
}

type usernameRequest struct {
	Username string `json:"username"`
}

func (a *App) handleUpdateUsername(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}

	var req usernameRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return jsonError(c, http.StatusBadRequest, "Username is required")
	}

	if err := a.API.UpdateUsername(c.Request().Context(), user.Email, username); err != nil {
		return err
	}
	user.Name = username
	if err := setUserSession(c, user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"message":  "Username updated",
		"username": username,
	})
}

type addAdminRequest struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ProfilePhoto string `json:"profilePhoto"`
}

func (a *App) handleAddAdmin(c echo.Context) error {
	var req addAdminRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "Email, username and password are required")
	}
	if !emailPattern.MatchString(email) {
		return jsonError(c, http.StatusBadRequest, "Invalid email format")
	}
	if len([]rune(req.Password)) < minPasswordLength {
		return jsonError(c, http.StatusBadRequest, "Password must be at least 6 characters")
	}
	photo := strings.TrimSpace(req.ProfilePhoto)
	if photo == "" {
		photo = project.DefaultAvatar
	}

	data, err := a.API.AddAdmin(c.Request().Context(), contentapi.NewAdmin{
		Email:        email,
		Username:     username,
		Password:     req.Password,
		ProfilePhoto: photo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Admin added",
		"data":    data,
	})
}

func (a *App) handleProfilePhoto(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	username := strings.TrimSpace(c.FormValue("username"))
	if username == "" {
		username = user.Name
	}
	if username == "" {
		return jsonError(c, http.StatusBadRequest, "Username is required")
	}

	up, err := a.uploadFormImage(c, storage.FolderProfilePhotos, profilePhotoWidth)
	if err != nil {
		return err
	}
	if err := a.API.UpdateUserProfilePhoto(c.Request().Context(), username, up.URL); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Profile photo updated",
		"url":     up.URL,
	})
}

// handleProfilePhotoByUsername always succeeds; an unknown user or a failed
// lookup yields an empty photo.
func (a *App) handleProfilePhotoByUsername(c echo.Context) error {
	username := strings.TrimSpace(c.QueryParam("username"))
	photo := ""
	if username != "" {
		p, err := a.API.GetUserProfilePhoto(c.Request().Context(), username)
		if err != nil {
			log.WithError(err).WithField("username", username).Debug("profile photo lookup failed")
		}
		photo = p
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "profilePhoto": photo})
}
