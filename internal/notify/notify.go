// Package notify stores per-user notifications and pushes them to users that
// are connected.
package notify

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// EventNotification is the live event name for a new notification.
const EventNotification = "notification"

// Pusher delivers a live event to a user's connection, if there is one.
// It must not block and reports whether the event was queued.
type Pusher interface {
	Push(userID int64, event string, payload any) bool
}

// Service manages notifications.
type Service struct {
	db      *sql.DB
	pusher  Pusher
	metrics metrics.Recorder
}

// NewService creates a notification service. Pusher and recorder may be nil.
func NewService(db *sql.DB, pusher Pusher, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Service{db: db, pusher: pusher, metrics: rec}
}

// Notify stores an unread notification and pushes it to the recipient.
func (s *Service) Notify(ctx context.Context, n model.NewNotification) (*model.Notification, error) {
	if n.Message == "" {
		return nil, fmt.Errorf("%w: notification message required", model.ErrValidation)
	}

	created, err := store.CreateNotification(ctx, s.db, n)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordNotification()
	s.Push(created)
	return created, nil
}

// Push delivers a stored notification. An offline recipient is not an error;
// the record stays for ListForUser.
func (s *Service) Push(n *model.Notification) {
	if s.pusher == nil {
		return
	}
	s.pusher.Push(n.UserID, EventNotification, n)
}

// ListForUser returns a user's notifications in creation order.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]model.Notification, error) {
	return store.ListNotifications(ctx, s.db, userID)
}

// MarkRead marks one of the requester's notifications as read.
func (s *Service) MarkRead(ctx context.Context, id, requesterID int64) (*model.Notification, error) {
	n, err := store.GetNotification(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("%w: notification %d", model.ErrNotFound, id)
	}
	if n.UserID != requesterID {
		return nil, fmt.Errorf("%w: notification %d belongs to another user", model.ErrForbidden, id)
	}

	if !n.Read {
		if err := store.MarkNotificationRead(ctx, s.db, id); err != nil {
			return nil, err
		}
		n.Read = true
	}
	return n, nil
}

// MarkAllRead marks every notification of a user as read and returns how
// many were unread.
func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return store.MarkAllNotificationsRead(ctx, s.db, userID)
}
