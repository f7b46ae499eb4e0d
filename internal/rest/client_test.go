package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/kolt2050/messager/internal/models"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

type staticTokens string

func (s staticTokens) Token() string { return string(s) }

// newTestServer mounts the given routes on an echo instance behind httptest.
func newTestServer(t *testing.T, mount func(e *echo.Echo)) *httptest.Server {
	t.Helper()
	e := echo.New()
	mount(e)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, token string, mount func(e *echo.Echo)) *Client {
	t.Helper()
	srv := newTestServer(t, mount)
	return New(srv.URL, staticTokens(token))
}

// ---------------------------------------------------------------------------
// Base client behavior
// ---------------------------------------------------------------------------

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, "tok-123", func(e *echo.Echo) {
		e.GET("/channels", func(c echo.Context) error {
			gotAuth = c.Request().Header.Get("Authorization")
			return c.JSON(http.StatusOK, []models.Channel{})
		})
	})

	if _, err := c.Channels(context.Background()); err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestNoTokenNoAuthHeader(t *testing.T) {
	var gotAuth string
	c := newTestClient(t, "", func(e *echo.Echo) {
		e.GET("/channels", func(c echo.Context) error {
			gotAuth = c.Request().Header.Get("Authorization")
			return c.JSON(http.StatusOK, []models.Channel{})
		})
	})

	if _, err := c.Channels(context.Background()); err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if gotAuth != "" {
		t.Fatalf("expected no auth header, got %q", gotAuth)
	}
}

func TestErrorDetailMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrUnauthorized},
		{"forbidden", http.StatusForbidden, ErrForbidden},
		{"not found", http.StatusNotFound, ErrNotFound},
		{"conflict", http.StatusConflict, ErrConflict},
		{"validation", http.StatusUnprocessableEntity, ErrBadRequest},
		{"internal", http.StatusInternalServerError, ErrServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, "t", func(e *echo.Echo) {
				e.GET("/channels", func(c echo.Context) error {
					return c.JSON(tt.status, map[string]string{"detail": "nope"})
				})
			})

			_, err := c.Channels(context.Background())
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Detail != "nope" {
				t.Fatalf("expected server detail preserved, got %q", apiErr.Detail)
			}
		})
	}
}

func TestBaseURLNormalized(t *testing.T) {
	c := New("http://host:8000///", staticTokens(""))
	if c.BaseURL() != "http://host:8000" {
		t.Fatalf("expected trailing slashes stripped, got %q", c.BaseURL())
	}
}

// ---------------------------------------------------------------------------
// Capability probe
// ---------------------------------------------------------------------------

func TestCheckServer_DocsEndpoint(t *testing.T) {
	srv := newTestServer(t, func(e *echo.Echo) {
		e.GET("/docs", func(c echo.Context) error { return c.HTML(http.StatusOK, "<html>") })
	})
	if !CheckServer(context.Background(), srv.URL) {
		t.Fatal("expected probe to pass via /docs")
	}
}

func TestCheckServer_OpenAPIFallback(t *testing.T) {
	srv := newTestServer(t, func(e *echo.Echo) {
		e.GET("/openapi.json", func(c echo.Context) error { return c.JSON(http.StatusOK, map[string]string{}) })
	})
	if !CheckServer(context.Background(), srv.URL) {
		t.Fatal("expected probe to fall back to /openapi.json")
	}
}

func TestCheckServer_Unreachable(t *testing.T) {
	if CheckServer(context.Background(), "http://127.0.0.1:1") {
		t.Fatal("expected probe to fail for unreachable address")
	}
}

// ---------------------------------------------------------------------------
// Auth endpoints
// ---------------------------------------------------------------------------

func TestLogin_FormEncoded(t *testing.T) {
	c := newTestClient(t, "", func(e *echo.Echo) {
		e.POST("/auth/login", func(c echo.Context) error {
			if ct := c.Request().Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
				t.Fatalf("expected form content type, got %q", ct)
			}
			if c.FormValue("username") != "alice" || c.FormValue("password") != "secret" {
				t.Fatalf("form values not transmitted: %q/%q", c.FormValue("username"), c.FormValue("password"))
			}
			return c.JSON(http.StatusOK, TokenResponse{AccessToken: "tok", TokenType: "bearer"})
		})
	})

	token, err := c.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token.AccessToken != "tok" {
		t.Fatalf("unexpected token %+v", token)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	c := newTestClient(t, "", func(e *echo.Echo) {
		e.POST("/auth/login", func(c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
		})
	})

	_, err := c.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestMe(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.GET("/auth/me", func(c echo.Context) error {
			return c.JSON(http.StatusOK, models.User{ID: 7, Username: "alice", IsAdmin: true})
		})
	})

	user, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if user.ID != 7 || user.Username != "alice" || !user.IsAdmin {
		t.Fatalf("unexpected user %+v", user)
	}
}

// ---------------------------------------------------------------------------
// Channel and message endpoints
// ---------------------------------------------------------------------------

func TestChannels_DecodesMembers(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.GET("/channels", func(c echo.Context) error {
			return c.JSON(http.StatusOK, []models.Channel{
				{ID: 1, Name: "general", CreatedBy: 7, Members: []models.User{{ID: 7, Username: "alice"}}},
			})
		})
	})

	channels, err := c.Channels(context.Background())
	if err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if len(channels) != 1 || channels[0].Name != "general" || len(channels[0].Members) != 1 {
		t.Fatalf("unexpected channels %+v", channels)
	}
	if !channels[0].IsOwner(7) {
		t.Fatal("owner flag should derive from created_by")
	}
}

func TestSendMessage_Body(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.POST("/channels/5/messages", func(c echo.Context) error {
			var body map[string]any
			if err := c.Bind(&body); err != nil {
				return err
			}
			if body["content"] != "hello" {
				t.Fatalf("unexpected content %v", body["content"])
			}
			if body["image_url"] != "http://host/pic.png" {
				t.Fatalf("unexpected image_url %v", body["image_url"])
			}
			return c.JSON(http.StatusOK, models.Message{ID: 9, ChannelID: 5, Content: "hello"})
		})
	})

	img := "http://host/pic.png"
	msg, err := c.SendMessage(context.Background(), 5, "hello", &img, nil)
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if msg.ID != 9 {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestDeleteMessage_Path(t *testing.T) {
	deleted := false
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.DELETE("/messages/33", func(c echo.Context) error {
			deleted = true
			return c.NoContent(http.StatusOK)
		})
	})

	if err := c.DeleteMessage(context.Background(), 33); err != nil {
		t.Fatalf("DeleteMessage: %v", err)
	}
	if !deleted {
		t.Fatal("delete endpoint not hit")
	}
}

// ---------------------------------------------------------------------------
// Media resolvers
// ---------------------------------------------------------------------------

func TestResolveInstagram(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.GET("/utils/resolve_instagram", func(c echo.Context) error {
			if c.QueryParam("url") != "https://www.instagram.com/p/Cabc/" {
				t.Fatalf("url not escaped/transmitted: %q", c.QueryParam("url"))
			}
			return c.JSON(http.StatusOK, map[string]string{"video_url": "https://cdn/v.mp4"})
		})
	})

	got, err := c.ResolveInstagram(context.Background(), "https://www.instagram.com/p/Cabc/")
	if err != nil {
		t.Fatalf("ResolveInstagram: %v", err)
	}
	if got != "https://cdn/v.mp4" {
		t.Fatalf("unexpected video url %q", got)
	}
}

func TestResolveTikTok_NotFound(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.GET("/utils/resolve_tiktok", func(c echo.Context) error {
			return c.JSON(http.StatusNotFound, map[string]string{"detail": "Video URL not found"})
		})
	})

	_, err := c.ResolveTikTok(context.Background(), "https://vm.tiktok.com/x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Upload
// ---------------------------------------------------------------------------

func TestUpload_Multipart(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.POST("/upload", func(c echo.Context) error {
			file, err := c.FormFile("file")
			if err != nil {
				t.Fatalf("form file: %v", err)
			}
			if file.Filename != "pic.png" {
				t.Fatalf("unexpected filename %q", file.Filename)
			}
			thumb := "http://host/files/pic_thumb.png"
			return c.JSON(http.StatusOK, models.UploadResult{
				URL:          "http://host/files/pic.png",
				ThumbnailURL: &thumb,
			})
		})
	})

	result, err := c.Upload(context.Background(), "pic.png", strings.NewReader("binary"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if result.URL != "http://host/files/pic.png" || result.ThumbnailURL == nil {
		t.Fatalf("unexpected result %+v", result)
	}
}

// ---------------------------------------------------------------------------
// Admin endpoints
// ---------------------------------------------------------------------------

func TestUpdateUser_PartialBody(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.PATCH("/admin/users/4", func(c echo.Context) error {
			var body map[string]any
			if err := c.Bind(&body); err != nil {
				return err
			}
			if _, ok := body["email"]; ok {
				t.Fatal("nil email must be omitted")
			}
			if body["is_admin"] != true {
				t.Fatalf("unexpected is_admin %v", body["is_admin"])
			}
			return c.NoContent(http.StatusOK)
		})
	})

	admin := true
	if err := c.UpdateUser(context.Background(), 4, UserUpdate{IsAdmin: &admin}); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
}

func TestSMTPSettingsRoundTrip(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.GET("/admin/settings/smtp", func(c echo.Context) error {
			return c.JSON(http.StatusOK, models.SMTPSettings{Host: "smtp.example.com", Port: 587, User: "mailer"})
		})
		e.PUT("/admin/settings/smtp", func(c echo.Context) error {
			var s models.SMTPSettings
			if err := c.Bind(&s); err != nil {
				return err
			}
			if s.Host != "smtp.example.com" || s.Port != 465 {
				t.Fatalf("unexpected settings %+v", s)
			}
			return c.NoContent(http.StatusOK)
		})
	})

	settings, err := c.SMTPSettings(context.Background())
	if err != nil {
		t.Fatalf("SMTPSettings: %v", err)
	}
	if settings.Host != "smtp.example.com" || settings.Port != 587 {
		t.Fatalf("unexpected settings %+v", settings)
	}

	settings.Port = 465
	if err := c.UpdateSMTPSettings(context.Background(), *settings); err != nil {
		t.Fatalf("UpdateSMTPSettings: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Account flows
// ---------------------------------------------------------------------------

func TestUpdateProfile_VerificationRequired(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.PUT("/auth/me", func(c echo.Context) error {
			var body map[string]string
			if err := c.Bind(&body); err != nil {
				return err
			}
			if body["email"] != "new@example.com" {
				t.Fatalf("unexpected body %v", body)
			}
			return c.JSON(http.StatusOK, ActionResponse{
				Detail:               "Verification code sent",
				VerificationRequired: true,
			})
		})
	})

	resp, err := c.UpdateProfile(context.Background(), "new@example.com")
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if !resp.VerificationRequired {
		t.Fatal("expected verification_required to survive decoding")
	}
}

func TestConfirmPasswordReset_Body(t *testing.T) {
	c := newTestClient(t, "", func(e *echo.Echo) {
		e.POST("/auth/reset-password-confirm", func(c echo.Context) error {
			var body map[string]string
			if err := c.Bind(&body); err != nil {
				return err
			}
			if body["email"] != "a@b.c" || body["code"] != "123456" || body["new_password"] != "hunter2" {
				t.Fatalf("unexpected body %v", body)
			}
			return c.NoContent(http.StatusOK)
		})
	})

	if err := c.ConfirmPasswordReset(context.Background(), "a@b.c", "123456", "hunter2"); err != nil {
		t.Fatalf("ConfirmPasswordReset: %v", err)
	}
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.POST("/auth/update-password", func(c echo.Context) error {
			return c.JSON(http.StatusBadRequest, map[string]string{"detail": "Current password is incorrect"})
		})
	})

	err := c.UpdatePassword(context.Background(), "wrong", "next")
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "Current password is incorrect" {
		t.Fatalf("expected server detail preserved, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Channel membership
// ---------------------------------------------------------------------------

func TestAddChannelMember(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.POST("/channels/7/members", func(c echo.Context) error {
			var body map[string]string
			if err := c.Bind(&body); err != nil {
				return err
			}
			if body["username"] != "bob" {
				t.Fatalf("unexpected body %v", body)
			}
			return c.NoContent(http.StatusOK)
		})
	})

	if err := c.AddChannelMember(context.Background(), 7, "bob"); err != nil {
		t.Fatalf("AddChannelMember: %v", err)
	}
}

func TestRemoveChannelMember_Forbidden(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.DELETE("/channels/7/members/3", func(c echo.Context) error {
			return c.JSON(http.StatusForbidden, map[string]string{"detail": "Only the owner can remove members"})
		})
	})

	err := c.RemoveChannelMember(context.Background(), 7, 3)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Admin user management
// ---------------------------------------------------------------------------

func TestCreateUser(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.POST("/admin/users", func(c echo.Context) error {
			var body map[string]string
			if err := c.Bind(&body); err != nil {
				return err
			}
			if body["username"] != "bob" || body["password"] != "hunter2" || body["email"] != "bob@example.com" {
				t.Fatalf("unexpected body %v", body)
			}
			return c.JSON(http.StatusCreated, models.User{ID: 9, Username: "bob"})
		})
	})

	user, err := c.CreateUser(context.Background(), "bob", "hunter2", "bob@example.com")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID != 9 || user.Username != "bob" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestDeleteUser_Path(t *testing.T) {
	var gotPath string
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.DELETE("/admin/users/:id", func(c echo.Context) error {
			gotPath = c.Request().URL.Path
			return c.NoContent(http.StatusOK)
		})
	})

	if err := c.DeleteUser(context.Background(), 9); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if gotPath != "/admin/users/9" {
		t.Fatalf("unexpected path %q", gotPath)
	}
}

func TestResetUserPassword(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.POST("/admin/users/9/reset-password", func(c echo.Context) error {
			return c.JSON(http.StatusOK, ActionResponse{Detail: "New password sent to bob@example.com"})
		})
	})

	resp, err := c.ResetUserPassword(context.Background(), 9)
	if err != nil {
		t.Fatalf("ResetUserPassword: %v", err)
	}
	if resp.Detail != "New password sent to bob@example.com" {
		t.Fatalf("unexpected detail %q", resp.Detail)
	}
}

// ---------------------------------------------------------------------------
// Mail-based account flows
// ---------------------------------------------------------------------------

func TestResetMyPassword(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.POST("/auth/me/reset-password", func(c echo.Context) error {
			return c.JSON(http.StatusOK, ActionResponse{Detail: "New password sent"})
		})
	})

	resp, err := c.ResetMyPassword(context.Background())
	if err != nil {
		t.Fatalf("ResetMyPassword: %v", err)
	}
	if resp.Detail != "New password sent" {
		t.Fatalf("unexpected detail %q", resp.Detail)
	}
}

func TestRequestPasswordReset(t *testing.T) {
	c := newTestClient(t, "", func(e *echo.Echo) {
		e.POST("/auth/request-password-reset", func(c echo.Context) error {
			var body map[string]string
			if err := c.Bind(&body); err != nil {
				return err
			}
			if body["email"] != "a@b.c" {
				t.Fatalf("unexpected body %v", body)
			}
			return c.NoContent(http.StatusOK)
		})
	})

	if err := c.RequestPasswordReset(context.Background(), "a@b.c"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
}

func TestVerifyEmailChange_BadCode(t *testing.T) {
	c := newTestClient(t, "tok", func(e *echo.Echo) {
		e.POST("/auth/me/verify-email", func(c echo.Context) error {
			var body map[string]string
			if err := c.Bind(&body); err != nil {
				return err
			}
			if body["code"] == "123456" {
				return c.NoContent(http.StatusOK)
			}
			return c.JSON(http.StatusBadRequest, map[string]string{"detail": "Invalid verification code"})
		})
	})

	if err := c.VerifyEmailChange(context.Background(), "123456"); err != nil {
		t.Fatalf("VerifyEmailChange: %v", err)
	}
	if err := c.VerifyEmailChange(context.Background(), "000000"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for a wrong code, got %v", err)
	}
}
