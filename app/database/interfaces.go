package database

import (
	"time"
)

type AccountRepository interface {
	GetByFeedToken(token string) (*Account, error)
	GetBySessionToken(token string) (*Account, error)
	GetByEmail(email string) (*Account, error)
	GetByID(id string) (*Account, error)
	GetAccountCount() (int, error)

	Create(email string) (*Account, error)
	RotateFeedToken(accountID string) (string, error)
}

type EpisodeRepository interface {
	GetRecentByAccount(accountID string, limit int) ([]Episode, error)
	GetEpisodeCount() (int, error)

	Insert(episode Episode) error
}

type WeightRepository interface {
	// Get returns the stored mapping, or an empty mapping when nothing has
	// ever been written for the account.
	Get(accountID string) (map[string]int, error)
	// Replace fully supersedes the stored mapping in a single upsert and
	// advances updated_at even when the weights are unchanged.
	Replace(accountID string, weights map[string]int, updatedAt time.Time) error
	GetUpdatedAt(accountID string) (*time.Time, error)
}

type QueueRepository interface {
	ListByAccount(accountID string) ([]QueueItem, error)
	Insert(item QueueItem) error
	Delete(accountID, itemID string) (bool, error)
}

type PushRepository interface {
	Upsert(sub PushSubscription) error
	DeleteByEndpoint(accountID, endpoint string) (bool, error)
}
