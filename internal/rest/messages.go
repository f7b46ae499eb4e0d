package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/kolt2050/messager/internal/models"
)

// Messages fetches the full message list for a channel in creation order.
func (c *Client) Messages(ctx context.Context, channelID int64) ([]models.Message, error) {
	var messages []models.Message
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/channels/%d/messages", channelID), nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendMessage posts a message. The created message is returned by the
// server, but the canonical delivery path to the UI is the new_message push
// event; the store intentionally does not insert this response.
func (c *Client) SendMessage(ctx context.Context, channelID int64, content string, imageURL, thumbnailURL *string) (*models.Message, error) {
	body := map[string]any{
		"content":       content,
		"image_url":     imageURL,
		"thumbnail_url": thumbnailURL,
	}
	var msg models.Message
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/channels/%d/messages", channelID), body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a message by id.
func (c *Client) DeleteMessage(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/messages/%d", id), nil, nil)
}

// videoURLBody is returned by the media resolver endpoints.
type videoURLBody struct {
	VideoURL string `json:"video_url"`
}

// ResolveInstagram asks the server to scrape a direct playable URL for an
// Instagram post. Implements media.Resolver.
func (c *Client) ResolveInstagram(ctx context.Context, postURL string) (string, error) {
	var body videoURLBody
	path := "/utils/resolve_instagram?url=" + url.QueryEscape(postURL)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &body); err != nil {
		return "", err
	}
	return body.VideoURL, nil
}

// ResolveTikTok asks the server to resolve a direct playable URL for a
// TikTok video. Implements media.Resolver.
func (c *Client) ResolveTikTok(ctx context.Context, videoURL string) (string, error) {
	var body videoURLBody
	path := "/utils/resolve_tiktok?url=" + url.QueryEscape(videoURL)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &body); err != nil {
		return "", err
	}
	return body.VideoURL, nil
}
