package store

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kolt2050/messager/internal/gateway"
	"github.com/kolt2050/messager/internal/models"
)

// Client-side validation errors, caught before any request is dispatched.
var (
	ErrEmptyMessage     = errors.New("message is empty")
	ErrEmptyChannelName = errors.New("channel name is empty")
	ErrNoActiveChannel  = errors.New("no active channel")
)

// API is the REST surface the store depends on. *rest.Client implements it;
// tests substitute fakes.
type API interface {
	Channels(ctx context.Context) ([]models.Channel, error)
	CreateChannel(ctx context.Context, name string) (*models.Channel, error)
	DeleteChannel(ctx context.Context, id int64) error
	Messages(ctx context.Context, channelID int64) ([]models.Message, error)
	SendMessage(ctx context.Context, channelID int64, content string, imageURL, thumbnailURL *string) (*models.Message, error)
	DeleteMessage(ctx context.Context, id int64) error
	Users(ctx context.Context) ([]models.User, error)
}

// Store owns the channel list, the active channel and its message list, and
// (when admin-scoped) the user list. All state lives on a single event loop:
// mutations and reads are posted as closures onto the ops channel and run by
// Run one at a time, so no locking is needed and push events are applied
// strictly in arrival order.
type Store struct {
	api  API
	ops  chan func()
	done chan struct{}

	// Loop-owned state. Touched only from inside posted closures.
	channels        []models.Channel
	activeChannelID int64
	messages        []models.Message
	users           []models.User

	// loadSeq stamps each message-list replacement. A fetch that settles
	// after a newer switch (or a reset) sees a stale stamp and must not
	// overwrite the current list.
	loadSeq uint64
}

func New(api API) *Store {
	return &Store{
		api:  api,
		ops:  make(chan func(), 64),
		done: make(chan struct{}),
	}
}

// Run processes posted operations until ctx is cancelled. It must be running
// before any other method is called.
func (s *Store) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-s.ops:
			op()
		}
	}
}

// post queues op onto the event loop. After Run has exited the op is
// silently dropped; the session is gone and its state with it.
func (s *Store) post(op func()) {
	select {
	case s.ops <- op:
	case <-s.done:
	}
}

// sync posts op and waits for the loop to run it.
func (s *Store) sync(op func()) {
	ran := make(chan struct{})
	s.post(func() {
		op()
		close(ran)
	})
	select {
	case <-ran:
	case <-s.done:
	}
}

// Hydrate bulk-fetches the channel list, and the user list when the current
// user is an admin, then installs both atomically.
func (s *Store) Hydrate(ctx context.Context, admin bool) error {
	var (
		channels []models.Channel
		users    []models.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		channels, err = s.api.Channels(gctx)
		return err
	})
	if admin {
		g.Go(func() error {
			var err error
			users, err = s.api.Users(gctx)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.post(func() {
		s.channels = channels
		s.users = users
	})
	return nil
}

// SetActiveChannel switches the visible channel. The message list is
// replaced, never merged: it is cleared immediately and repopulated by a
// fresh full fetch. id 0 clears the selection without a fetch. A fetch whose
// originating switch is no longer current is discarded.
func (s *Store) SetActiveChannel(ctx context.Context, id int64) error {
	if id == 0 {
		s.post(func() {
			s.activeChannelID = 0
			s.messages = nil
			s.loadSeq++
		})
		return nil
	}

	var seq uint64
	s.sync(func() {
		s.activeChannelID = id
		s.messages = nil
		s.loadSeq++
		seq = s.loadSeq
	})

	messages, err := s.api.Messages(ctx, id)
	if err != nil {
		return err
	}

	s.post(func() {
		if s.loadSeq != seq || s.activeChannelID != id {
			return
		}
		s.messages = messages
	})
	return nil
}

// ApplyLiveEvent reconciles one push event against the local model.
func (s *Store) ApplyLiveEvent(ev gateway.Event) {
	s.post(func() {
		switch ev.Type {
		case gateway.EventNewMessage:
			if ev.Message == nil || ev.Message.ChannelID != s.activeChannelID {
				// Non-active channel: the message shows up on the
				// next switch via the fresh fetch.
				return
			}
			for i := range s.messages {
				if s.messages[i].ID == ev.Message.ID {
					// Duplicate of the sender's own REST echo
					// racing the push event. First arrival wins.
					return
				}
			}
			s.messages = append(s.messages, *ev.Message)

		case gateway.EventMessageDeleted:
			for i := range s.messages {
				if s.messages[i].ID == ev.ID {
					s.messages = append(s.messages[:i], s.messages[i+1:]...)
					return
				}
			}

		case gateway.EventChannelDeleted:
			s.removeChannel(ev.ID)
		}
	})
}

// removeChannel drops a channel and clears the selection when it was active.
// Runs on the loop.
func (s *Store) removeChannel(id int64) {
	for i := range s.channels {
		if s.channels[i].ID == id {
			s.channels = append(s.channels[:i], s.channels[i+1:]...)
			break
		}
	}
	if s.activeChannelID == id {
		s.activeChannelID = 0
		s.messages = nil
		s.loadSeq++
	}
}

// CreateChannel creates a channel on the server and appends it to the local
// list on success. This is the one optimistic local mutation; a stale append
// is corrected only by a later full reload.
func (s *Store) CreateChannel(ctx context.Context, name string) (*models.Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyChannelName
	}

	channel, err := s.api.CreateChannel(ctx, name)
	if err != nil {
		return nil, err
	}

	s.post(func() {
		s.channels = append(s.channels, *channel)
	})
	return channel, nil
}

// DeleteChannel deletes a channel on the server, then removes it locally.
// The state is untouched when the server rejects the call.
func (s *Store) DeleteChannel(ctx context.Context, id int64) error {
	if err := s.api.DeleteChannel(ctx, id); err != nil {
		return err
	}
	s.post(func() {
		s.removeChannel(id)
	})
	return nil
}

// SendMessage posts a message to a channel. The sent message is not inserted
// locally; it appears through the subsequent new_message push event, and the
// duplicate suppression in ApplyLiveEvent keeps that safe should an
// optimistic insert ever be added.
func (s *Store) SendMessage(ctx context.Context, channelID int64, content string, imageURL, thumbnailURL *string) error {
	if channelID == 0 {
		return ErrNoActiveChannel
	}
	content = models.SanitizeContent(content)
	if content == "" && imageURL == nil {
		return ErrEmptyMessage
	}
	_, err := s.api.SendMessage(ctx, channelID, content, imageURL, thumbnailURL)
	return err
}

// DeleteMessage deletes a message on the server. Local removal happens via
// the message_deleted push event, which is idempotent for everyone else too.
func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	return s.api.DeleteMessage(ctx, id)
}

// RefreshChannels re-fetches the channel list, e.g. after membership edits.
func (s *Store) RefreshChannels(ctx context.Context) error {
	channels, err := s.api.Channels(ctx)
	if err != nil {
		return err
	}
	s.post(func() {
		s.channels = channels
	})
	return nil
}

// RefreshUsers re-fetches the admin user list.
func (s *Store) RefreshUsers(ctx context.Context) error {
	users, err := s.api.Users(ctx)
	if err != nil {
		return err
	}
	s.post(func() {
		s.users = users
	})
	return nil
}

// Reset discards all state on logout or disconnect. Nothing carries over to
// the next session.
func (s *Store) Reset() {
	s.post(func() {
		s.channels = nil
		s.activeChannelID = 0
		s.messages = nil
		s.users = nil
		s.loadSeq++
	})
}

// Channels returns a snapshot of the channel list.
func (s *Store) Channels() []models.Channel {
	var out []models.Channel
	s.sync(func() {
		out = append(out, s.channels...)
	})
	return out
}

// ActiveChannelID returns the current selection, 0 when none.
func (s *Store) ActiveChannelID() int64 {
	var id int64
	s.sync(func() {
		id = s.activeChannelID
	})
	return id
}

// ActiveChannel returns the selected channel, nil when none.
func (s *Store) ActiveChannel() *models.Channel {
	var out *models.Channel
	s.sync(func() {
		for i := range s.channels {
			if s.channels[i].ID == s.activeChannelID {
				ch := s.channels[i]
				out = &ch
				return
			}
		}
	})
	return out
}

// Messages returns a snapshot of the active channel's message list.
func (s *Store) Messages() []models.Message {
	var out []models.Message
	s.sync(func() {
		out = append(out, s.messages...)
	})
	return out
}

// Users returns a snapshot of the admin user list.
func (s *Store) Users() []models.User {
	var out []models.User
	s.sync(func() {
		out = append(out, s.users...)
	})
	return out
}
