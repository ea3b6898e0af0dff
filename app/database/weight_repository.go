package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type weightRepository struct {
	db *DB
}

func NewWeightRepository(db *DB) WeightRepository {
	return &weightRepository{db: db}
}

func (r *weightRepository) Get(accountID string) (map[string]int, error) {
	var raw string
	err := r.db.QueryRow(`
		SELECT weights
		FROM preference_weights
		WHERE account_id = ?
	`, accountID).Scan(&raw)

	if err == sql.ErrNoRows {
		// "never written" renders the same as "explicitly empty"
		return map[string]int{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weights: %w", err)
	}

	weights := make(map[string]int)
	if err := json.Unmarshal([]byte(raw), &weights); err != nil {
		return nil, fmt.Errorf("failed to decode stored weights: %w", err)
	}

	return weights, nil
}

// Replace writes the full mapping in one upsert statement. Omitted topics are
// dropped, and updated_at advances even when the payload matches the stored
// value byte for byte.
func (r *weightRepository) Replace(accountID string, weights map[string]int, updatedAt time.Time) error {
	raw, err := json.Marshal(weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO preference_weights (account_id, weights, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			weights = excluded.weights,
			updated_at = excluded.updated_at
	`, accountID, string(raw), updatedAt)
	if err != nil {
		return fmt.Errorf("failed to replace weights: %w", err)
	}

	return nil
}

func (r *weightRepository) GetUpdatedAt(accountID string) (*time.Time, error) {
	var updatedAt time.Time
	err := r.db.QueryRow(`
		SELECT updated_at
		FROM preference_weights
		WHERE account_id = ?
	`, accountID).Scan(&updatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get weights timestamp: %w", err)
	}

	return &updatedAt, nil
}
