// Package chat implements private conversations between the owners of
// matched items.
package chat

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
	"github.com/erazemk/najdeno/internal/sanitize"
	"github.com/erazemk/najdeno/internal/store"
)

// EventMessage is the live event name for a new chat message.
const EventMessage = "message"

// MaxMessageLength is the longest accepted message, in characters.
const MaxMessageLength = 2000

// Service manages chats and their messages.
type Service struct {
	db       *sql.DB
	pusher   notify.Pusher
	notifier *notify.Service
	metrics  metrics.Recorder
}

// NewService creates a chat service. Pusher and recorder may be nil.
func NewService(db *sql.DB, pusher notify.Pusher, notifier *notify.Service, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{db: db, pusher: pusher, notifier: notifier, metrics: rec}
}

// GetOrCreateChat returns the chat for the unordered pair of users, creating
// it with the given item and display names if none exists. An existing chat
// is returned unchanged.
func (s *Service) GetOrCreateChat(ctx context.Context, userA, userB int64, itemID *int64, nameA, nameB string) (*model.Chat, error) {
	if userA == userB {
		return nil, fmt.Errorf("%w: cannot chat with yourself", model.ErrValidation)
	}

	c, created, err := store.GetOrCreateChat(ctx, s.db, userA, userB, nameA, nameB, itemID)
	if err != nil {
		return nil, err
	}
	if created {
		slog.Info("chat created", "chat", c.ID, "user1", c.User1ID, "user2", c.User2ID)
	}
	return c, nil
}

// StartChat opens (or returns) the requester's chat with another user.
func (s *Service) StartChat(ctx context.Context, requester model.Identity, otherUserID int64, itemID *int64) (*model.ChatView, error) {
	if otherUserID == requester.UserID {
		return nil, fmt.Errorf("%w: cannot chat with yourself", model.ErrValidation)
	}

	other, err := store.GetUser(ctx, s.db, otherUserID)
	if err != nil {
		return nil, err
	}
	if other == nil {
		return nil, fmt.Errorf("%w: user %d", model.ErrNotFound, otherUserID)
	}

	c, err := s.GetOrCreateChat(ctx, requester.UserID, other.ID, itemID, requester.Name, other.Name)
	if err != nil {
		return nil, err
	}
	return view(c, requester.UserID), nil
}

// ListChatsFor returns the user's chats, each annotated with the other
// participant.
func (s *Service) ListChatsFor(ctx context.Context, userID int64) ([]model.ChatView, error) {
	chats, err := store.ListChats(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.ChatView, 0, len(chats))
	for i := range chats {
		out = append(out, *view(&chats[i], userID))
	}
	return out, nil
}

// ListMessages returns a chat's messages in the order they were sent.
func (s *Service) ListMessages(ctx context.Context, chatID, requesterID int64) ([]model.Message, error) {
	if _, err := s.participantChat(ctx, chatID, requesterID); err != nil {
		return nil, err
	}
	return store.ListMessages(ctx, s.db, chatID)
}

// SendMessage appends a message, pushes it to the other participant and
// leaves them a notification.
func (s *Service) SendMessage(ctx context.Context, chatID int64, sender model.Identity, text string) (*model.Message, error) {
	c, err := s.participantChat(ctx, chatID, sender.UserID)
	if err != nil {
		return nil, err
	}

	text = sanitize.Text(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message required", model.ErrValidation)
	}
	if utf8.RuneCountInString(text) > MaxMessageLength {
		return nil, fmt.Errorf("%w: message longer than %d characters", model.ErrValidation, MaxMessageLength)
	}

	msg, err := store.CreateMessage(ctx, s.db, chatID, sender.UserID, text)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordMessage()

	recipient, _ := c.Other(sender.UserID)
	if s.pusher != nil {
		s.pusher.Push(recipient, EventMessage, msg)
	}

	if s.notifier != nil {
		s.notifyMessage(ctx, c, sender, recipient)
	}

	return msg, nil
}

// notifyMessage raises the "new message" notification. The message is
// already stored by the time it runs, so failures are only logged.
func (s *Service) notifyMessage(ctx context.Context, c *model.Chat, sender model.Identity, recipient int64) {
	senderName := sender.Name
	if senderName == "" {
		name, err := store.UserDisplayName(ctx, s.db, sender.UserID)
		if err != nil {
			slog.Error("resolving message sender", "chat", c.ID, "sender", sender.UserID, "error", err)
			return
		}
		senderName = name
	}

	id := c.ID
	if _, err := s.notifier.Notify(ctx, model.NewNotification{
		UserID:  recipient,
		Message: fmt.Sprintf("New message from %s", senderName),
		ItemID:  c.ItemID,
		ChatID:  &id,
	}); err != nil {
		slog.Error("creating message notification", "chat", c.ID, "error", err)
	}
}

func (s *Service) participantChat(ctx context.Context, chatID, userID int64) (*model.Chat, error) {
	c, err := store.GetChat(ctx, s.db, chatID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: chat %d", model.ErrNotFound, chatID)
	}
	if !c.HasParticipant(userID) {
		return nil, fmt.Errorf("%w: not a participant of chat %d", model.ErrForbidden, chatID)
	}
	return c, nil
}

func view(c *model.Chat, userID int64) *model.ChatView {
	otherID, otherName := c.Other(userID)
	return &model.ChatView{Chat: *c, OtherUserID: otherID, OtherUserName: otherName}
}
