package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// session is the persisted local state: server address and auth token,
// keyed by a fixed storage scope and cleared together on disconnect.
type session struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token,omitempty"`
}

// Config is the session-scoped configuration passed to constructors instead
// of ambient global state. It is initialized once at app start and survives
// across runs through a small JSON file in the user config dir.
type Config struct {
	LogLevel slog.Level

	mu      sync.Mutex
	path    string
	session session
}

// Load reads .env, the persisted session file, and environment overrides.
// A missing session file is not an error; it means no server is configured
// yet.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("MESSAGER_CONFIG")
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolving config dir: %w", err)
		}
		path = filepath.Join(dir, "messager", "session.json")
	}

	cfg := &Config{
		LogLevel: parseLogLevel(os.Getenv("LOG_LEVEL")),
		path:     path,
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg.session); err != nil {
			return nil, fmt.Errorf("parsing session file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
		// First run.
	default:
		return nil, fmt.Errorf("reading session file: %w", err)
	}

	if v := os.Getenv("MESSAGER_SERVER_URL"); v != "" {
		cfg.session.ServerURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("MESSAGER_TOKEN"); v != "" {
		cfg.session.Token = v
	}

	return cfg, nil
}

// ServerURL returns the persisted server address, "" when disconnected.
func (c *Config) ServerURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.ServerURL
}

// Token returns the persisted auth token. Implements rest.TokenSource.
func (c *Config) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Token
}

// SetServerURL persists a validated server address, normalized without a
// trailing slash.
func (c *Config) SetServerURL(url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.ServerURL = strings.TrimRight(url, "/")
	return c.save()
}

// SetToken persists the auth token received from login.
func (c *Config) SetToken(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Token = token
	return c.save()
}

// ClearToken discards the token but keeps the server address (logout).
func (c *Config) ClearToken() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.Token = ""
	return c.save()
}

// Clear discards both the address and the token (disconnect).
func (c *Config) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session{}
	return c.save()
}

func (c *Config) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(c.session, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
