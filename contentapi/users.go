package contentapi

import (
	"context"
	"encoding/json"
	"strings"
)

// User is an admin account as the endpoint describes it.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	ProfilePhoto string `json:"profilePhoto"`
}

func userFrom(m map[string]any) *User {
	u := &User{
		ID:           toString(m["id"]),
		Email:        toString(m["email"]),
		Username:     toString(m["username"]),
		Name:         toString(m["name"]),
		ProfilePhoto: toString(m["profilePhoto"]),
	}
	if u.Name == "" {
		u.Name = u.Username
	}
	return u
}

// NewAdmin describes an account to create.
type NewAdmin struct {
	Email        string
	Username     string
	Password     string
	ProfilePhoto string
}

// Login checks credentials. A rejected password yields ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	env, _, err := c.call(ctx, "login", map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	m, hasUser := env.object("user")
	if !env.flag("valid") && !(env.flag("success") && hasUser) {
		return nil, ErrInvalidCredentials
	}
	u := userFrom(m)
	if u.Email == "" {
		u.Email = email
	}
	return u, nil
}

// UpdatePassword sets a new password for the account with email.
func (c *Client) UpdatePassword(ctx context.Context, email, newPassword string) error {
	return c.command(ctx, "updatePassword", map[string]any{
		"email":       email,
		"newPassword": newPassword,
	}, "failed to update password")
}

// UpdateUsername renames the account with email.
func (c *Client) UpdateUsername(ctx context.Context, email, username string) error {
	return c.command(ctx, "updateUsername", map[string]any{
		"email":    email,
		"username": strings.TrimSpace(username),
	}, "failed to update username")
}

// AddAdmin creates an account and returns the endpoint's data payload.
func (c *Client) AddAdmin(ctx context.Context, a NewAdmin) (json.RawMessage, error) {
	const action = "addAdmin"
	env, status, err := c.call(ctx, action, map[string]any{
		"email":        strings.TrimSpace(a.Email),
		"username":     strings.TrimSpace(a.Username),
		"password":     a.Password,
		"profilePhoto": a.ProfilePhoto,
	})
	if err != nil {
		return nil, err
	}
	if !env.flag("success") {
		return nil, env.failure(action, status, "failed to add admin")
	}
	return env["data"], nil
}

// GetUserByEmail looks up an account.
func (c *Client) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const action = "getUserByEmail"
	env, status, err := c.call(ctx, action, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	m, ok := env.object("user")
	if !env.flag("success") || !ok {
		return nil, env.failure(action, status, "user not found")
	}
	return userFrom(m), nil
}

// GetUserProfilePhoto returns the photo URL stored for username, which may
// be empty.
func (c *Client) GetUserProfilePhoto(ctx context.Context, username string) (string, error) {
	const action = "getUserProfilePhoto"
	env, status, err := c.call(ctx, action, map[string]any{"username": strings.TrimSpace(username)})
	if err != nil {
		return "", err
	}
	if _, present := env["success"]; present && !env.flag("success") {
		return "", env.failure(action, status, "profile photo not found")
	}
	return env.text("profilePhoto"), nil
}

// UpdateUserProfilePhoto stores photoURL for username.
func (c *Client) UpdateUserProfilePhoto(ctx context.Context, username, photoURL string) error {
	return c.command(ctx, "updateUserProfilePhoto", map[string]any{
		"username":     strings.TrimSpace(username),
		"profilePhoto": photoURL,
	}, "failed to update profile photo")
}

func (c *Client) command(ctx context.Context, action string, fields map[string]any, fallback string) error {
	env, status, err := c.call(ctx, action, fields)
	if err != nil {
		return err
	}
	if !env.flag("success") {
		return env.failure(action, status, fallback)
	}
	return nil
}
