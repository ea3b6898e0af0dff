package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type accountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, email, feed_token, session_token, created_at, updated_at`

func (r *accountRepository) scanAccount(row *sql.Row) (*Account, error) {
	var account Account
	err := row.Scan(
		&account.ID, &account.Email, &account.FeedToken, &account.SessionToken,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) GetByFeedToken(token string) (*Account, error) {
	account, err := r.scanAccount(r.db.QueryRow(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE feed_token = ?
	`, token))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by feed token: %w", err)
	}
	return account, nil
}

func (r *accountRepository) GetBySessionToken(token string) (*Account, error) {
	account, err := r.scanAccount(r.db.QueryRow(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE session_token = ?
	`, token))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by session token: %w", err)
	}
	return account, nil
}

func (r *accountRepository) GetByEmail(email string) (*Account, error) {
	account, err := r.scanAccount(r.db.QueryRow(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = ?
	`, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}
	return account, nil
}

func (r *accountRepository) GetByID(id string) (*Account, error) {
	account, err := r.scanAccount(r.db.QueryRow(`
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = ?
	`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}
	return account, nil
}

func (r *accountRepository) GetAccountCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM accounts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get account count: %w", err)
	}
	return count, nil
}

// Create registers a new account with freshly generated feed and session
// tokens. The feed token is generated once and stays stable until an explicit
// rotation.
func (r *accountRepository) Create(email string) (*Account, error) {
	now := time.Now().UTC()
	account := Account{
		ID:           uuid.NewString(),
		Email:        email,
		FeedToken:    uuid.NewString(),
		SessionToken: uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.Exec(`
		INSERT INTO accounts (id, email, feed_token, session_token, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, account.ID, account.Email, account.FeedToken, account.SessionToken,
		account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &account, nil
}

// RotateFeedToken atomically replaces the account's feed token. The old token
// stops resolving the moment the statement commits.
func (r *accountRepository) RotateFeedToken(accountID string) (string, error) {
	token := uuid.NewString()

	result, err := r.db.Exec(`
		UPDATE accounts
		SET feed_token = ?, updated_at = ?
		WHERE id = ?
	`, token, time.Now().UTC(), accountID)
	if err != nil {
		return "", fmt.Errorf("failed to rotate feed token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to check rotation result: %w", err)
	}
	if affected == 0 {
		return "", fmt.Errorf("account %s not found", accountID)
	}

	return token, nil
}
