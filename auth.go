package portfolio

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/portfolio/contentapi"
)

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return jsonError(c, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return jsonError(c, http.StatusBadRequest, "Email and password are required")
	}

	user, err := a.verifyCredentials(c, req.Email, req.Password)
	if errors.Is(err, contentapi.ErrInvalidCredentials) {
		log.WithField("ip", c.RealIP()).Warn("failed login attempt")
		return jsonError(c, http.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return err
	}

	if err := setUserSession(c, user); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Login successful",
		"user":    user,
	})
}

// verifyCredentials checks the password against the content API, or
// against the configured admin account when there is no API.
func (a *App) verifyCredentials(c echo.Context, email, password string) (User, error) {
	if a.API.Configured() {
		u, err := a.API.Login(c.Request().Context(), email, password)
		if err != nil {
			return User{}, err
		}
		return User{ID: u.ID, Email: u.Email, Name: u.Name}, nil
	}

	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.Config.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.Config.AdminPassword)) == 1
	if a.Config.AdminPassword == "" || !emailOK || !passOK {
		return User{}, contentapi.ErrInvalidCredentials
	}
	return User{ID: "1", Email: email, Name: "Admin"}, nil
}

func handleLogout(c echo.Context) error {
	if err := clearUserSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "message": "Logged out"})
}

func handleMe(c echo.Context) error {
	user, err := CurrentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "user": user})
}
