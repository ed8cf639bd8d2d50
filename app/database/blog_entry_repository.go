package database

import (
	"database/sql"
	"errors"
	"fmt"
)

var _ BlogEntryRepository = (*blogEntryRepository)(nil)

type blogEntryRepository struct {
	db *DB
}

func NewBlogEntryRepository(db *DB) BlogEntryRepository {
	return &blogEntryRepository{db: db}
}

// UpdateOrCreate stores entry keyed by (feed, URL) and reports whether it was
// new.
func (r *blogEntryRepository) UpdateOrCreate(entry BlogEntry) (bool, error) {
	var existingID int64
	err := r.db.QueryRow(`SELECT id FROM blog_entries WHERE feed_id = ? AND url = ?`, entry.FeedID, entry.URL).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check existing blog entry: %w", err)
	}

	ts := now()
	if err == nil {
		_, err = r.db.Exec(`
			UPDATE blog_entries
			SET title = ?, summary = ?, pub_date = ?, updated_at = ?
			WHERE id = ?
		`, entry.Title, entry.Summary, entry.PubDate.UTC(), ts, existingID)
		if err != nil {
			return false, fmt.Errorf("failed to update blog entry: %w", err)
		}
		return false, nil
	}

	_, err = r.db.Exec(`
		INSERT INTO blog_entries (feed_id, url, title, summary, pub_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.FeedID, entry.URL, entry.Title, entry.Summary, entry.PubDate.UTC(), ts, ts)
	if err != nil {
		return false, fmt.Errorf("failed to create blog entry: %w", err)
	}

	return true, nil
}

// LatestEntry returns the most recently published entry of a feed, or nil.
func (r *blogEntryRepository) LatestEntry(feedID int64) (*BlogEntry, error) {
	var entry BlogEntry
	err := r.db.QueryRow(`
		SELECT id, feed_id, url, title, summary, pub_date, created_at, updated_at
		FROM blog_entries
		WHERE feed_id = ?
		ORDER BY pub_date DESC, id DESC
		LIMIT 1
	`, feedID).Scan(
		&entry.ID, &entry.FeedID, &entry.URL, &entry.Title, &entry.Summary,
		&entry.PubDate, &entry.CreatedAt, &entry.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest blog entry: %w", err)
	}

	return &entry, nil
}

func (r *blogEntryRepository) GetEntryCount(feedID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM blog_entries WHERE feed_id = ?", feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get blog entry count: %w", err)
	}
	return count, nil
}
