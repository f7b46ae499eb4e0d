package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxFrameSize = 64 * 1024
	dialTimeout  = 10 * time.Second
)

// State is the lifecycle state of a push-stream connection.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Client holds one push-stream connection scoped to a single server address
// and delivers decoded events to a single registered handler. Closed is
// terminal: on a server-address change the session constructs a new Client
// rather than reconnecting this one.
type Client struct {
	conn    *websocket.Conn
	handler Handler

	state atomic.Int32

	closeOnce sync.Once
	done      chan struct{}
}

// WSURL derives the push-stream URL from an HTTP server address.
func WSURL(serverURL string) string {
	url := strings.TrimSuffix(serverURL, "/")
	if after, ok := strings.CutPrefix(url, "https"); ok {
		url = "wss" + after
	} else if after, ok := strings.CutPrefix(url, "http"); ok {
		url = "ws" + after
	}
	return url + "/ws"
}

// Dial connects to the server's push stream and starts delivering events to
// handler. The returned Client is in StateOpen; on any dial failure the
// transport is released and no Client is returned.
func Dial(ctx context.Context, serverURL string, handler Handler) (*Client, error) {
	c := &Client{
		handler: handler,
		done:    make(chan struct{}),
	}
	c.state.Store(int32(StateConnecting))

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, WSURL(serverURL), nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		c.state.Store(int32(StateClosed))
		return nil, err
	}

	c.conn = conn
	c.conn.SetReadLimit(maxFrameSize)
	c.state.Store(int32(StateOpen))

	go c.readPump()
	return c, nil
}

// State returns the current connection state.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Done is closed when the connection has fully shut down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close tears the connection down. Idempotent; the transport is released on
// every exit path and the state moves to StateClosed.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(StateClosed))
		if c.conn != nil {
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = c.conn.Close()
		}
		close(c.done)
	})
}

// readPump reads frames until the connection dies. Malformed frames are
// dropped per-message without tearing down the connection; unknown event
// types are ignored for forward compatibility.
func (c *Client) readPump() {
	defer c.Close()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("push stream read error", "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			slog.Debug("dropping malformed push frame", "error", err)
			continue
		}

		switch env.Type {
		case EventNewMessage:
			if env.Message == nil {
				slog.Debug("dropping new_message frame without message")
				continue
			}
			c.handler(Event{Type: EventNewMessage, Message: env.Message})

		case EventMessageDeleted:
			c.handler(Event{Type: EventMessageDeleted, ID: env.ID, ChannelID: env.ChannelID})

		case EventChannelDeleted:
			c.handler(Event{Type: EventChannelDeleted, ID: env.ID})

		default:
			slog.Debug("ignoring unknown push event", "type", env.Type)
		}
	}
}
