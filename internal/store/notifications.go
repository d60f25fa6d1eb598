package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
)

const notificationColumns = `id, user_id, message, item_id, matched_item_id, matched_user_id, chat_id, read, created_at`

// CreateNotification stores a new unread notification.
func CreateNotification(ctx context.Context, q Querier, n model.NewNotification) (*model.Notification, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO notifications (user_id, message, item_id, matched_item_id, matched_user_id, chat_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		n.UserID, n.Message, nullableID(n.ItemID), nullableID(n.MatchedItemID),
		nullableID(n.MatchedUserID), nullableID(n.ChatID),
	)
	if err != nil {
		return nil, fmt.Errorf("creating notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting notification id: %w", err)
	}

	return GetNotification(ctx, q, id)
}

// GetNotification returns a notification by ID.
func GetNotification(ctx context.Context, q Querier, id int64) (*model.Notification, error) {
	n, err := scanNotification(q.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns a user's notifications in creation order.
func ListNotifications(ctx context.Context, q Querier, userID int64) ([]model.Notification, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// MarkNotificationRead sets read on a single notification.
func MarkNotificationRead(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx, `UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead sets read on every unread notification of a user
// and returns how many changed.
func MarkAllNotificationsRead(ctx context.Context, q Querier, userID int64) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE notifications SET read = 1 WHERE user_id = ? AND read = 0`, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting marked notifications: %w", err)
	}
	return n, nil
}

func scanNotification(row scanner) (*model.Notification, error) {
	n := &model.Notification{}
	err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.ItemID, &n.MatchedItemID,
		&n.MatchedUserID, &n.ChatID, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}
