package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lysyi3m/content-comb/app/markup"
)

var _ BoxRepository = (*boxRepository)(nil)

type boxRepository struct {
	db *DB
}

func NewBoxRepository(db *DB) BoxRepository {
	return &boxRepository{db: db}
}

func (r *boxRepository) GetBox(label string) (*Box, error) {
	var box Box
	var dialect string
	err := r.db.QueryRow(`
		SELECT id, label, content, content_markup_type, content_rendered, created_at, updated_at
		FROM boxes
		WHERE label = ?
	`, label).Scan(
		&box.ID, &box.Label, &box.Content.Raw, &dialect, &box.Content.Rendered,
		&box.CreatedAt, &box.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get box: %w", err)
	}

	box.Content.Dialect = markup.Dialect(dialect)
	return &box, nil
}

// UpdateOrCreate stores content under label, updating the existing box when
// there is one.
func (r *boxRepository) UpdateOrCreate(label string, content markup.Content) (*Box, bool, error) {
	if err := content.Recompute(); err != nil {
		return nil, false, err
	}

	existing, err := r.GetBox(label)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing box: %w", err)
	}

	ts := now()
	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE boxes
			SET content = ?, content_markup_type = ?, content_rendered = ?, updated_at = ?
			WHERE id = ?
		`, content.Raw, string(content.Dialect), content.Rendered, ts, existing.ID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update box: %w", err)
		}
		existing.Content = content
		existing.UpdatedAt = ts
		return existing, false, nil
	}

	res, err := r.db.Exec(`
		INSERT INTO boxes (label, content, content_markup_type, content_rendered, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, label, content.Raw, string(content.Dialect), content.Rendered, ts, ts)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create box: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read box id: %w", err)
	}

	return &Box{ID: id, Label: label, Content: content, CreatedAt: ts, UpdatedAt: ts}, true, nil
}
