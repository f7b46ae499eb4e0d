package rest

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/kolt2050/messager/internal/models"
)

// TokenResponse is returned by the login endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ActionResponse carries the server's outcome message for flows that return
// only a detail string (password resets, profile updates).
type ActionResponse struct {
	Detail               string `json:"detail"`
	VerificationRequired bool   `json:"verification_required,omitempty"`
}

// Login exchanges credentials for a bearer token. The endpoint takes a
// form-encoded body, not JSON.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token TokenResponse
	if err := c.do(req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Me returns the authenticated user, validating the stored token.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdatePassword changes the current user's password.
func (c *Client) UpdatePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	return c.doJSON(ctx, http.MethodPost, "/auth/update-password", body, nil)
}

// UpdateProfile updates the current user's email. When the server requires
// email verification, the response says so and VerifyEmailChange completes
// the flow.
func (c *Client) UpdateProfile(ctx context.Context, email string) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.doJSON(ctx, http.MethodPut, "/auth/me", map[string]string{"email": email}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyEmailChange confirms a pending email change with the mailed code.
func (c *Client) VerifyEmailChange(ctx context.Context, code string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/me/verify-email", map[string]string{"code": code}, nil)
}

// ResetMyPassword resets the current user's password and mails a new one.
func (c *Client) ResetMyPassword(ctx context.Context) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/me/reset-password", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RequestPasswordReset starts the mail-based reset flow for a logged-out user.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/request-password-reset", map[string]string{"email": email}, nil)
}

// ConfirmPasswordReset completes the mail-based reset flow.
func (c *Client) ConfirmPasswordReset(ctx context.Context, email, code, newPassword string) error {
	body := map[string]string{
		"email":        email,
		"code":         code,
		"new_password": newPassword,
	}
	return c.doJSON(ctx, http.MethodPost, "/auth/reset-password-confirm", body, nil)
}
