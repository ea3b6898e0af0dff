package database

import (
	"fmt"
)

type pushRepository struct {
	db *DB
}

func NewPushRepository(db *DB) PushRepository {
	return &pushRepository{db: db}
}

// Upsert stores the subscription, adopting the endpoint if another account
// previously registered it (browsers reuse endpoints across logins).
func (r *pushRepository) Upsert(sub PushSubscription) error {
	_, err := r.db.Exec(`
		INSERT INTO push_subscriptions (id, account_id, endpoint, p256dh, auth, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (endpoint) DO UPDATE SET
			account_id = excluded.account_id,
			p256dh = excluded.p256dh,
			auth = excluded.auth
	`, sub.ID, sub.AccountID, sub.Endpoint, sub.P256dh, sub.Auth, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert push subscription: %w", err)
	}
	return nil
}

func (r *pushRepository) DeleteByEndpoint(accountID, endpoint string) (bool, error) {
	result, err := r.db.Exec(`
		DELETE FROM push_subscriptions
		WHERE account_id = ? AND endpoint = ?
	`, accountID, endpoint)
	if err != nil {
		return false, fmt.Errorf("failed to delete push subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}

	return affected > 0, nil
}
