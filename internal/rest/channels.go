package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kolt2050/messager/internal/models"
)

// Channels lists the channels visible to the current user, including member
// lists.
func (c *Client) Channels(ctx context.Context) ([]models.Channel, error) {
	var channels []models.Channel
	if err := c.doJSON(ctx, http.MethodGet, "/channels", nil, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// CreateChannel creates a channel and returns it as the server stored it.
func (c *Client) CreateChannel(ctx context.Context, name string) (*models.Channel, error) {
	var channel models.Channel
	if err := c.doJSON(ctx, http.MethodPost, "/channels", map[string]string{"name": name}, &channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// DeleteChannel removes a channel and all its messages.
func (c *Client) DeleteChannel(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/channels/%d", id), nil, nil)
}

// AddChannelMember adds a user to a channel by username (owner only).
func (c *Client) AddChannelMember(ctx context.Context, channelID int64, username string) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/channels/%d/members", channelID),
		map[string]string{"username": username}, nil)
}

// RemoveChannelMember removes a user from a channel (owner only).
func (c *Client) RemoveChannelMember(ctx context.Context, channelID, userID int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/channels/%d/members/%d", channelID, userID), nil, nil)
}
