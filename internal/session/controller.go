package session

import (
	"context"
	"errors"
	"log/slog"

	"github.com/kolt2050/messager/internal/auth"
	"github.com/kolt2050/messager/internal/config"
	"github.com/kolt2050/messager/internal/gateway"
	"github.com/kolt2050/messager/internal/media"
	"github.com/kolt2050/messager/internal/models"
	"github.com/kolt2050/messager/internal/rest"
	"github.com/kolt2050/messager/internal/store"
)

var (
	ErrNotConnected      = errors.New("no server configured")
	ErrServerUnreachable = errors.New("server unreachable")
	ErrNotAuthenticated  = errors.New("not logged in")
)

// Controller orchestrates the connect → authenticate → converse lifecycle.
// It owns exactly one push-stream connection per active server address; the
// connection is torn down and replaced whenever the address changes, never
// shared across addresses. Methods are called from a single goroutine (the
// UI loop); the store's own event loop serializes everything underneath.
type Controller struct {
	cfg    *config.Config
	client *rest.Client

	user *models.User

	convs    *store.Store
	gw       *gateway.Client
	renderer *media.Renderer
	teardown context.CancelFunc

	// EventHook, when set before Login or Resume, observes every push
	// event after the store has applied it. The UI uses it to repaint.
	EventHook gateway.Handler
}

func NewController(cfg *config.Config) *Controller {
	c := &Controller{cfg: cfg}
	if cfg.ServerURL() != "" {
		c.client = rest.New(cfg.ServerURL(), cfg)
	}
	return c
}

// Connected reports whether a server address is configured.
func (c *Controller) Connected() bool { return c.client != nil }

// CurrentUser returns the authenticated user, nil before login.
func (c *Controller) CurrentUser() *models.User { return c.user }

// Client returns the REST client for the active server.
func (c *Controller) Client() *rest.Client { return c.client }

// Conversations returns the live conversation store, nil before login.
func (c *Controller) Conversations() *store.Store { return c.convs }

// Renderer returns the media renderer bound to the active server's
// resolver endpoints, nil before login.
func (c *Controller) Renderer() *media.Renderer { return c.renderer }

// Connect validates a candidate server address with the capability probe
// and persists it on success. An open session against the previous address
// is closed first.
func (c *Controller) Connect(ctx context.Context, serverURL string) error {
	if !rest.CheckServer(ctx, serverURL) {
		return ErrServerUnreachable
	}
	c.closeSession()
	c.user = nil
	if err := c.cfg.SetServerURL(serverURL); err != nil {
		return err
	}
	c.client = rest.New(c.cfg.ServerURL(), c.cfg)
	return nil
}

// Resume attempts silent re-authentication with the persisted token. On any
// failure the token is discarded and the caller falls back to interactive
// login; only transport-level errors are returned.
func (c *Controller) Resume(ctx context.Context) error {
	if c.client == nil {
		return ErrNotConnected
	}
	token := c.cfg.Token()
	if token == "" {
		return ErrNotAuthenticated
	}
	if auth.TokenExpired(token) {
		_ = c.cfg.ClearToken()
		return ErrNotAuthenticated
	}

	user, err := c.client.Me(ctx)
	if err != nil {
		if errors.Is(err, rest.ErrUnauthorized) {
			_ = c.cfg.ClearToken()
			return ErrNotAuthenticated
		}
		return err
	}

	c.user = user
	return c.openSession(user)
}

// Login authenticates interactively and opens the session.
func (c *Controller) Login(ctx context.Context, username, password string) error {
	if c.client == nil {
		return ErrNotConnected
	}

	token, err := c.client.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := c.cfg.SetToken(token.AccessToken); err != nil {
		return err
	}

	user, err := c.client.Me(ctx)
	if err != nil {
		return err
	}
	c.user = user
	return c.openSession(user)
}

// openSession starts the store event loop, hydrates it, and dials the push
// stream for the current address.
func (c *Controller) openSession(user *models.User) error {
	sessCtx, cancel := context.WithCancel(context.Background())
	c.teardown = cancel

	c.convs = store.New(c.client)
	go c.convs.Run(sessCtx)

	c.renderer = media.NewRenderer(c.client)

	if err := c.convs.Hydrate(sessCtx, user.IsAdmin); err != nil {
		c.closeSession()
		return err
	}

	convs, hook := c.convs, c.EventHook
	handler := func(ev gateway.Event) {
		convs.ApplyLiveEvent(ev)
		if hook != nil {
			hook(ev)
		}
	}

	gw, err := gateway.Dial(sessCtx, c.client.BaseURL(), handler)
	if err != nil {
		// Live updates degrade to manual refresh; the session stays usable.
		slog.Warn("push stream unavailable", "error", err)
	} else {
		c.gw = gw
	}
	return nil
}

// closeSession releases the push stream and discards all in-memory state.
func (c *Controller) closeSession() {
	if c.gw != nil {
		c.gw.Close()
		c.gw = nil
	}
	if c.convs != nil {
		c.convs.Reset()
		c.convs = nil
	}
	if c.teardown != nil {
		c.teardown()
		c.teardown = nil
	}
	c.renderer = nil
}

// Logout discards the token and all session state but keeps the server
// address.
func (c *Controller) Logout() error {
	c.closeSession()
	c.user = nil
	return c.cfg.ClearToken()
}

// Disconnect clears the address and token together and drops the session.
func (c *Controller) Disconnect() error {
	c.closeSession()
	c.user = nil
	c.client = nil
	return c.cfg.Clear()
}
