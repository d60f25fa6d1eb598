package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

const chatColumns = `id, user1_id, user2_id, user1_name, user2_name, item_id, created_at`

// PairKey identifies an unordered pair of users.
func PairKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// GetOrCreateChat returns the chat between user1 and user2, creating it when
// the pair has none. Existing chats are returned unchanged. The second result
// reports whether a new chat was created.
func GetOrCreateChat(ctx context.Context, q Querier, user1ID, user2ID int64, user1Name, user2Name string, itemID *int64) (*model.Chat, bool, error) {
	result, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO chats (pair_key, user1_id, user2_id, user1_name, user2_name, item_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		PairKey(user1ID, user2ID), user1ID, user2ID, user1Name, user2Name, nullableID(itemID),
	)
	if err != nil {
		return nil, false, fmt.Errorf("creating chat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("creating chat: %w", err)
	}

	// Always read back (either our insert or the existing row).
	chat, err := GetChatByPair(ctx, q, user1ID, user2ID)
	if err != nil {
		return nil, false, err
	}
	if chat == nil {
		return nil, false, fmt.Errorf("chat for pair %s missing after insert", PairKey(user1ID, user2ID))
	}
	return chat, affected == 1, nil
}

// GetChat returns a chat by ID.
func GetChat(ctx context.Context, q Querier, id int64) (*model.Chat, error) {
	c, err := scanChat(q.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting chat: %w", err)
	}
	return c, nil
}

// GetChatByPair returns the chat between two users in either order.
func GetChatByPair(ctx context.Context, q Querier, a, b int64) (*model.Chat, error) {
	c, err := scanChat(q.QueryRowContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE pair_key = ?`, PairKey(a, b),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting chat by pair: %w", err)
	}
	return c, nil
}

// ListChats returns the chats a user participates in, oldest first.
func ListChats(ctx context.Context, q Querier, userID int64) ([]model.Chat, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+chatColumns+` FROM chats WHERE user1_id = ? OR user2_id = ? ORDER BY id`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		chats = append(chats, *c)
	}
	return chats, rows.Err()
}

// CountChats returns the total number of chats.
func CountChats(ctx context.Context, q Querier) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM chats`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chats: %w", err)
	}
	return n, nil
}

// CreateMessage appends a message to a chat.
func CreateMessage(ctx context.Context, q Querier, chatID, senderID int64, text string) (*model.Message, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO messages (chat_id, sender_id, message) VALUES (?, ?, ?)`,
		chatID, senderID, text,
	)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting message id: %w", err)
	}

	m := &model.Message{}
	err = q.QueryRowContext(ctx,
		`SELECT id, chat_id, sender_id, message, created_at FROM messages WHERE id = ?`, id,
	).Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Message, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return m, nil
}

// ListMessages returns a chat's messages in creation order.
func ListMessages(ctx context.Context, q Querier, chatID int64) ([]model.Message, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, chat_id, sender_id, message, created_at
		 FROM messages WHERE chat_id = ? ORDER BY created_at, id`, chatID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		var m model.Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Message, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func scanChat(row scanner) (*model.Chat, error) {
	c := &model.Chat{}
	err := row.Scan(&c.ID, &c.User1ID, &c.User2ID, &c.User1Name, &c.User2Name, &c.ItemID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}
