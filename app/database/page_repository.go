package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lysyi3m/content-comb/app/markup"
)

var _ PageRepository = (*pageRepository)(nil)

type pageRepository struct {
	db *DB
}

func NewPageRepository(db *DB) PageRepository {
	return &pageRepository{db: db}
}

const pageColumns = `id, path, title, keywords, description,
	content, content_markup_type, content_rendered,
	is_published, creator_id, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (*Page, error) {
	var page Page
	var dialect string
	var creatorID sql.NullInt64
	err := row.Scan(
		&page.ID, &page.Path, &page.Title, &page.Keywords, &page.Description,
		&page.Content.Raw, &dialect, &page.Content.Rendered,
		&page.IsPublished, &creatorID, &page.CreatedAt, &page.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	page.Content.Dialect = markup.Dialect(dialect)
	if creatorID.Valid {
		page.CreatorID = &creatorID.Int64
	}
	return &page, nil
}

func (r *pageRepository) GetPage(path string) (*Page, error) {
	page, err := scanPage(r.db.QueryRow(`SELECT `+pageColumns+` FROM pages WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}
	return page, nil
}

func (r *pageRepository) GetOrCreate(path string, defaults Page) (*Page, bool, error) {
	existing, err := r.GetPage(path)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	page := defaults
	page.Path = path
	if err := page.Content.Recompute(); err != nil {
		return nil, false, err
	}
	page.CreatedAt = now()
	page.UpdatedAt = page.CreatedAt

	res, err := r.db.Exec(`
		INSERT INTO pages (
			path, title, keywords, description,
			content, content_markup_type, content_rendered,
			is_published, creator_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, page.Path, page.Title, page.Keywords, page.Description,
		page.Content.Raw, string(page.Content.Dialect), page.Content.Rendered,
		page.IsPublished, page.CreatorID, page.CreatedAt, page.UpdatedAt)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create page: %w", err)
	}

	page.ID, err = res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read page id: %w", err)
	}

	return &page, true, nil
}

// Save writes every mutable column of page, re-rendering its content first.
func (r *pageRepository) Save(page *Page) error {
	if err := page.Content.Recompute(); err != nil {
		return err
	}
	page.UpdatedAt = now()

	_, err := r.db.Exec(`
		UPDATE pages
		SET title = ?, keywords = ?, description = ?,
		    content = ?, content_markup_type = ?, content_rendered = ?,
		    is_published = ?, creator_id = ?, updated_at = ?
		WHERE id = ?
	`, page.Title, page.Keywords, page.Description,
		page.Content.Raw, string(page.Content.Dialect), page.Content.Rendered,
		page.IsPublished, page.CreatorID, page.UpdatedAt, page.ID)
	if err != nil {
		return fmt.Errorf("failed to save page: %w", err)
	}

	return nil
}

func (r *pageRepository) ListPagesByPrefix(prefix string) ([]Page, error) {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	rows, err := r.db.Query(`
		SELECT `+pageColumns+`
		FROM pages
		WHERE path LIKE ? ESCAPE '\'
		ORDER BY path
	`, escaped+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan page row: %w", err)
		}
		pages = append(pages, *page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page rows: %w", err)
	}

	return pages, nil
}

func (r *pageRepository) GetPageCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM pages").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return count, nil
}

// AddPageImage records that page uses image. Repeated calls for the same
// pair are no-ops; the result reports whether a row was inserted.
func (r *pageRepository) AddPageImage(pageID int64, image string) (bool, error) {
	res, err := r.db.Exec(`
		INSERT INTO page_images (page_id, image) VALUES (?, ?)
		ON CONFLICT (page_id, image) DO NOTHING
	`, pageID, image)
	if err != nil {
		return false, fmt.Errorf("failed to add page image: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *pageRepository) ListPageImages(pageID int64) ([]string, error) {
	rows, err := r.db.Query(`SELECT image FROM page_images WHERE page_id = ? ORDER BY id`, pageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list page images: %w", err)
	}
	defer rows.Close()

	var images []string
	for rows.Next() {
		var image string
		if err := rows.Scan(&image); err != nil {
			return nil, fmt.Errorf("failed to scan page image row: %w", err)
		}
		images = append(images, image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating page image rows: %w", err)
	}

	return images, nil
}
