package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var _ FeedRepository = (*feedRepository)(nil)

type feedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) FeedRepository {
	return &feedRepository{db: db}
}

const feedColumns = `id, name, feed_url, website_url, last_import, created_at, updated_at`

func scanFeed(row scanner) (*Feed, error) {
	var feed Feed
	var lastImport sql.NullTime
	err := row.Scan(
		&feed.ID, &feed.Name, &feed.FeedURL, &feed.WebsiteURL, &lastImport,
		&feed.CreatedAt, &feed.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastImport.Valid {
		feed.LastImport = &lastImport.Time
	}
	return &feed, nil
}

// UpsertFeed inserts or updates the feed registered under feedURL
func (r *feedRepository) UpsertFeed(name, feedURL, websiteURL string) (*Feed, error) {
	ts := now()
	_, err := r.db.Exec(`
		INSERT INTO feeds (name, feed_url, website_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (feed_url) DO UPDATE SET
			name = excluded.name,
			website_url = excluded.website_url,
			updated_at = excluded.updated_at
	`, name, feedURL, websiteURL, ts, ts)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert feed: %w", err)
	}

	return r.GetFeedByURL(feedURL)
}

// GetFeedByURL retrieves a feed by its URL; nil when none is registered
func (r *feedRepository) GetFeedByURL(feedURL string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE feed_url = ?`, feedURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}
	return feed, nil
}

func (r *feedRepository) ListFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`SELECT ` + feedColumns + ` FROM feeds ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *feedRepository) UpdateLastImport(feedID int64, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_import = ?, updated_at = ?
		WHERE id = ?
	`, at.UTC(), now(), feedID)
	if err != nil {
		return fmt.Errorf("failed to update last import: %w", err)
	}
	return nil
}

// GetFeedCount returns the total number of feeds
func (r *feedRepository) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}
