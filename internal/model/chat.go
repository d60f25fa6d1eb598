package model

import "time"

// Chat is a private conversation between two users.
type Chat struct {
	ID        int64     `json:"id"`
	User1ID   int64     `json:"user1Id"`
	User2ID   int64     `json:"user2Id"`
	User1Name string    `json:"user1Name"`
	User2Name string    `json:"user2Name"`
	ItemID    *int64    `json:"itemId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Chat) HasParticipant(userID int64) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// Other returns the id and display name of the participant that is not userID.
func (c *Chat) Other(userID int64) (int64, string) {
	if c.User1ID == userID {
		return c.User2ID, c.User2Name
	}
	return c.User1ID, c.User1Name
}

// ChatView is a chat annotated with the other participant for display.
type ChatView struct {
	Chat
	OtherUserID   int64  `json:"otherUserId"`
	OtherUserName string `json:"otherUserName"`
}

// Message is an immutable chat message.
type Message struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chatId"`
	SenderID  int64     `json:"senderId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
