package database

import (
	"fmt"
)

type queueRepository struct {
	db *DB
}

func NewQueueRepository(db *DB) QueueRepository {
	return &queueRepository{db: db}
}

func (r *queueRepository) ListByAccount(accountID string) ([]QueueItem, error) {
	rows, err := r.db.Query(`
		SELECT id, account_id, url, kind, title, excerpt, status, created_at, processed_at
		FROM queue_items
		WHERE account_id = ?
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queue items: %w", err)
	}
	defer rows.Close()

	var items []QueueItem
	for rows.Next() {
		var item QueueItem
		err := rows.Scan(
			&item.ID, &item.AccountID, &item.URL, &item.Kind, &item.Title,
			&item.Excerpt, &item.Status, &item.CreatedAt, &item.ProcessedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue item row: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating queue item rows: %w", err)
	}

	return items, nil
}

func (r *queueRepository) Insert(item QueueItem) error {
	_, err := r.db.Exec(`
		INSERT INTO queue_items (id, account_id, url, kind, title, excerpt, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.AccountID, item.URL, item.Kind, item.Title, item.Excerpt,
		item.Status, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert queue item: %w", err)
	}
	return nil
}

// Delete removes the item only when it belongs to the account. Returns false
// when nothing matched.
func (r *queueRepository) Delete(accountID, itemID string) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM queue_items
		WHERE id = ? AND account_id = ?
	`, itemID, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to delete queue item: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}

	return affected > 0, nil
}
