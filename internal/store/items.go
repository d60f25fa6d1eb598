package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/najdeno/internal/model"
)

const itemColumns = `id, user_id, status, name, category, description, location, color, date,
	image_mime, approved, match_status, matched_with, matched_user_id, created_at, updated_at`

// ItemFilter narrows ListItems. Zero values match everything.
type ItemFilter struct {
	Status    string
	UserID    int64
	Unmatched bool
}

// CreateItem creates a new report owned by userID.
func CreateItem(ctx context.Context, q Querier, userID int64, in model.ItemInput) (*model.Item, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO items (user_id, status, name, category, description, location, color, date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, in.Status, in.Name, in.Category, in.Description, in.Location, in.Color, in.Date,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, q, id)
}

// GetItem returns an item by ID, including its rejected matches.
func GetItem(ctx context.Context, q Querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	rejected, err := listRejected(ctx, q, []int64{id})
	if err != nil {
		return nil, err
	}
	item.RejectedMatches = rejected[id]
	if item.RejectedMatches == nil {
		item.RejectedMatches = []int64{}
	}
	return item, nil
}

// ListItems returns items in creation order.
func ListItems(ctx context.Context, q Querier, f ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.UserID > 0 {
		query += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if f.Unmatched {
		query += ` AND match_status != 'approved'`
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	var ids []int64
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
		ids = append(ids, item.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	rows.Close()

	rejected, err := listRejected(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].RejectedMatches = rejected[items[i].ID]
		if items[i].RejectedMatches == nil {
			items[i].RejectedMatches = []int64{}
		}
	}
	return items, nil
}

// UpdateItemFields writes an item's descriptive fields.
func UpdateItemFields(ctx context.Context, q Querier, item *model.Item) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, description = ?, location = ?, color = ?, date = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		item.Name, item.Category, item.Description, item.Location, item.Color, item.Date, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return nil
}

// SetItemApproved sets the standalone approval flag.
func SetItemApproved(ctx context.Context, q Querier, id int64, approved bool) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET approved = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		approved, id,
	)
	if err != nil {
		return fmt.Errorf("setting item approval: %w", err)
	}
	return nil
}

// SetItemMatch marks an item as approved and paired with matchedWith.
func SetItemMatch(ctx context.Context, q Querier, id, matchedWith, matchedUserID int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET approved = 1, match_status = 'approved', matched_with = ?, matched_user_id = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		matchedWith, matchedUserID, id,
	)
	if err != nil {
		return fmt.Errorf("setting item match: %w", err)
	}
	return nil
}

// ClearItemMatch returns an item to the unapproved, unpaired state.
func ClearItemMatch(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET approved = 0, match_status = 'pending', matched_with = NULL, matched_user_id = NULL,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("clearing item match: %w", err)
	}
	return nil
}

// DeleteItem removes an item and every rejection that references it.
func DeleteItem(ctx context.Context, q Querier, id int64) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM rejected_matches WHERE item_id = ? OR rejected_id = ?`, id, id,
	); err != nil {
		return fmt.Errorf("deleting item rejections: %w", err)
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

// AddRejectedMatch records rejectedID as rejected for itemID. Duplicates are ignored.
func AddRejectedMatch(ctx context.Context, q Querier, itemID, rejectedID int64) error {
	_, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO rejected_matches (item_id, rejected_id) VALUES (?, ?)`,
		itemID, rejectedID,
	)
	if err != nil {
		return fmt.Errorf("adding rejected match: %w", err)
	}
	return nil
}

// RemoveRejectedMatch forgets a rejection. Missing rows are not an error.
func RemoveRejectedMatch(ctx context.Context, q Querier, itemID, rejectedID int64) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM rejected_matches WHERE item_id = ? AND rejected_id = ?`,
		itemID, rejectedID,
	)
	if err != nil {
		return fmt.Errorf("removing rejected match: %w", err)
	}
	return nil
}

// SetItemImage sets an item's image data.
func SetItemImage(ctx context.Context, q Querier, id int64, image []byte, mime string) error {
	_, err := q.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type.
func GetItemImage(ctx context.Context, q Querier, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

func scanItem(row scanner) (*model.Item, error) {
	item := &model.Item{}
	var category, description, location, color, date, imageMime sql.NullString
	err := row.Scan(&item.ID, &item.UserID, &item.Status, &item.Name,
		&category, &description, &location, &color, &date, &imageMime,
		&item.Approved, &item.MatchStatus, &item.MatchedWith, &item.MatchedUserID,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Category = category.String
	item.Description = description.String
	item.Location = location.String
	item.Color = color.String
	item.Date = date.String
	item.ImageMime = imageMime.String
	return item, nil
}

// listRejected loads the rejected sets for the given items, keyed by item id.
func listRejected(ctx context.Context, q Querier, ids []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT item_id, rejected_id FROM rejected_matches
		 WHERE item_id IN (`+placeholders+`) ORDER BY rowid`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing rejected matches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID, rejectedID int64
		if err := rows.Scan(&itemID, &rejectedID); err != nil {
			return nil, fmt.Errorf("scanning rejected match: %w", err)
		}
		out[itemID] = append(out[itemID], rejectedID)
	}
	return out, rows.Err()
}
