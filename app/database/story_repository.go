package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lysyi3m/content-comb/app/markup"
)

var _ StoryRepository = (*storyRepository)(nil)

type storyRepository struct {
	db *DB
}

func NewStoryRepository(db *DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) GetStory(slug string) (*Story, error) {
	var story Story
	var dialect string
	err := r.db.QueryRow(`
		SELECT id, slug, name, company_name, company_url, author, author_email, category,
		       pub_date, content, content_markup_type, content_rendered, is_published,
		       created_at, updated_at
		FROM stories
		WHERE slug = ?
	`, slug).Scan(
		&story.ID, &story.Slug, &story.Name, &story.CompanyName, &story.CompanyURL,
		&story.Author, &story.AuthorEmail, &story.Category,
		&story.PubDate, &story.Content.Raw, &dialect, &story.Content.Rendered, &story.IsPublished,
		&story.CreatedAt, &story.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	story.Content.Dialect = markup.Dialect(dialect)
	return &story, nil
}

// UpdateOrCreate stores story keyed by its slug and reports whether it was
// new. story.ID and timestamps are filled in on return.
func (r *storyRepository) UpdateOrCreate(story *Story) (bool, error) {
	if err := story.Content.Recompute(); err != nil {
		return false, err
	}

	existing, err := r.GetStory(story.Slug)
	if err != nil {
		return false, fmt.Errorf("failed to check existing story: %w", err)
	}

	ts := now()
	story.UpdatedAt = ts

	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE stories
			SET name = ?, company_name = ?, company_url = ?, author = ?, author_email = ?,
			    category = ?, pub_date = ?, content = ?, content_markup_type = ?,
			    content_rendered = ?, is_published = ?, updated_at = ?
			WHERE id = ?
		`, story.Name, story.CompanyName, story.CompanyURL, story.Author, story.AuthorEmail,
			story.Category, story.PubDate.UTC(), story.Content.Raw, string(story.Content.Dialect),
			story.Content.Rendered, story.IsPublished, ts, existing.ID)
		if err != nil {
			return false, fmt.Errorf("failed to update story: %w", err)
		}
		story.ID = existing.ID
		story.CreatedAt = existing.CreatedAt
		return false, nil
	}

	story.CreatedAt = ts
	res, err := r.db.Exec(`
		INSERT INTO stories (
			slug, name, company_name, company_url, author, author_email, category,
			pub_date, content, content_markup_type, content_rendered, is_published,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, story.Slug, story.Name, story.CompanyName, story.CompanyURL, story.Author, story.AuthorEmail,
		story.Category, story.PubDate.UTC(), story.Content.Raw, string(story.Content.Dialect),
		story.Content.Rendered, story.IsPublished, ts, ts)
	if err != nil {
		return false, fmt.Errorf("failed to create story: %w", err)
	}

	story.ID, err = res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read story id: %w", err)
	}

	return true, nil
}

func (r *storyRepository) GetStoryCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM stories").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get story count: %w", err)
	}
	return count, nil
}
