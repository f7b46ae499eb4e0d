package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kolt2050/messager/internal/models"
)

// Users lists all users (admin only).
func (c *Client) Users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := c.doJSON(ctx, http.MethodGet, "/admin/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates a user (admin only). Email may be empty.
func (c *Client) CreateUser(ctx context.Context, username, password, email string) (*models.User, error) {
	body := map[string]string{
		"username": username,
		"password": password,
		"email":    email,
	}
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/admin/users", body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UserUpdate carries the admin-editable fields; nil fields are untouched.
type UserUpdate struct {
	Email   *string `json:"email,omitempty"`
	IsAdmin *bool   `json:"is_admin,omitempty"`
}

// UpdateUser edits a user's email or admin flag (admin only).
func (c *Client) UpdateUser(ctx context.Context, userID int64, update UserUpdate) error {
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/admin/users/%d", userID), update, nil)
}

// DeleteUser removes a user (admin only).
func (c *Client) DeleteUser(ctx context.Context, userID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", userID), nil, nil)
}

// ResetUserPassword resets a user's password and mails them a new one
// (admin only).
func (c *Client) ResetUserPassword(ctx context.Context, userID int64) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/admin/users/%d/reset-password", userID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SMTPSettings fetches the server's mail configuration (admin only).
func (c *Client) SMTPSettings(ctx context.Context) (*models.SMTPSettings, error) {
	var settings models.SMTPSettings
	if err := c.doJSON(ctx, http.MethodGet, "/admin/settings/smtp", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSMTPSettings replaces the server's mail configuration (admin only).
func (c *Client) UpdateSMTPSettings(ctx context.Context, settings models.SMTPSettings) error {
	return c.doJSON(ctx, http.MethodPut, "/admin/settings/smtp", settings, nil)
}
