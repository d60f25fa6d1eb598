package model

import "time"

// Notification is a per-user message raised by a match approval or a new
// chat message.
type Notification struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"userId"`
	Message       string    `json:"message"`
	ItemID        *int64    `json:"itemId,omitempty"`
	MatchedItemID *int64    `json:"matchedItemId,omitempty"`
	MatchedUserID *int64    `json:"matchedUserId,omitempty"`
	ChatID        *int64    `json:"chatId,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"createdAt"`
}

// NewNotification describes a notification to be stored.
type NewNotification struct {
	UserID        int64
	Message       string
	ItemID        *int64
	MatchedItemID *int64
	MatchedUserID *int64
	ChatID        *int64
}
