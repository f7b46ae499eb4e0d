package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	requestTimeout = 30 * time.Second
	probeTimeout   = 5 * time.Second
)

// TokenSource supplies the current bearer token, or "" when not logged in.
// The session config implements it so a token refresh is picked up by
// in-flight clients without reconstruction.
type TokenSource interface {
	Token() string
}

// Client talks to one messaging server. All methods take a context and
// return typed errors from errors.go; callers convert them to user-facing
// notices and never let them escape as faults.
type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
}

// New creates a client for the given server address. The address is
// normalized by stripping trailing slashes, matching what the session
// persists.
func New(serverURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: strings.TrimRight(serverURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// BaseURL returns the normalized server address the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// CheckServer probes a candidate server address before it is persisted.
// The primary probe is the API docs page; openapi.json is the fallback for
// deployments that disable docs.
func CheckServer(ctx context.Context, serverURL string) bool {
	url := strings.TrimRight(serverURL, "/")
	client := &http.Client{Timeout: probeTimeout}
	for _, path := range []string{"/docs", "/openapi.json"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+path, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return true
		}
	}
	return false
}

// detailBody is the FastAPI-style error envelope.
type detailBody struct {
	Detail string `json:"detail"`
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into out (out may be nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

// do sends the request with auth attached and decodes the response.
func (c *Client) do(req *http.Request, out any) error {
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var detail detailBody
		_ = json.NewDecoder(resp.Body).Decode(&detail)
		return newAPIError(resp.StatusCode, detail.Detail)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
