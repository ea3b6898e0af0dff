package database

import (
	"fmt"
)

type episodeRepository struct {
	db *DB
}

func NewEpisodeRepository(db *DB) EpisodeRepository {
	return &episodeRepository{db: db}
}

// GetRecentByAccount returns the account's newest episodes, creation time
// descending, capped at limit.
func (r *episodeRepository) GetRecentByAccount(accountID string, limit int) ([]Episode, error) {
	rows, err := r.db.Query(`
		SELECT id, account_id, title, COALESCE(summary, ''), audio_url,
		       duration_seconds, created_at
		FROM episodes
		WHERE account_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent episodes: %w", err)
	}
	defer rows.Close()

	var episodes []Episode
	for rows.Next() {
		var episode Episode
		err := rows.Scan(
			&episode.ID, &episode.AccountID, &episode.Title, &episode.Summary,
			&episode.AudioURL, &episode.DurationSeconds, &episode.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan episode row: %w", err)
		}
		episodes = append(episodes, episode)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episode rows: %w", err)
	}

	return episodes, nil
}

func (r *episodeRepository) GetEpisodeCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM episodes").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get episode count: %w", err)
	}
	return count, nil
}

func (r *episodeRepository) Insert(episode Episode) error {
	_, err := r.db.Exec(`
		INSERT INTO episodes (id, account_id, title, summary, audio_url, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, episode.ID, episode.AccountID, episode.Title, episode.Summary,
		episode.AudioURL, episode.DurationSeconds, episode.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}
	return nil
}
