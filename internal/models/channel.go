package models

import "time"

type Channel struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	Members   []User    `json:"members,omitempty"`
}

// IsOwner reports whether the given user created the channel.
func (c *Channel) IsOwner(userID int64) bool {
	return c.CreatedBy == userID
}

// HasMember reports whether the given user is in the channel's member list.
func (c *Channel) HasMember(userID int64) bool {
	for _, m := range c.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
