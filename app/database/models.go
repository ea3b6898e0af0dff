package database

import (
	"time"
)

type Account struct {
	ID           string // Database UUID
	Email        string
	FeedToken    string // Opaque public capability for the RSS feed
	SessionToken string // Opaque credential for the dashboard APIs
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Episode struct {
	ID              string
	AccountID       string
	Title           string
	Summary         string // Narration summary, may be empty
	AudioURL        string
	DurationSeconds *int // nil when the worker did not report a duration
	CreatedAt       time.Time
}

type QueueItem struct {
	ID          string
	AccountID   string
	URL         string
	Kind        string // article or video
	Title       string
	Excerpt     string
	Status      string // pending or processed
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type PushSubscription struct {
	ID        string
	AccountID string
	Endpoint  string
	P256dh    string
	Auth      string
	CreatedAt time.Time
}
