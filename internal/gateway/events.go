package gateway

import "github.com/kolt2050/messager/internal/models"

// Event types pushed by the server.
const (
	EventNewMessage     = "new_message"
	EventMessageDeleted = "message_deleted"
	EventChannelDeleted = "channel_deleted"
)

// Envelope is the wire format of every push frame.
type Envelope struct {
	Type      string          `json:"type"`
	Message   *models.Message `json:"message,omitempty"`
	ID        int64           `json:"id,omitempty"`
	ChannelID int64           `json:"channel_id,omitempty"`
}

// Event is a decoded push event delivered to the registered handler.
// Message is set for EventNewMessage; ID carries the deleted message or
// channel id for the two delete events.
type Event struct {
	Type      string
	Message   *models.Message
	ID        int64
	ChannelID int64
}

// Handler receives decoded events in arrival order.
type Handler func(Event)
