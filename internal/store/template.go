package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tmplpress/internal/models"
)

// TemplateStore handles all template-related database operations.
type TemplateStore struct {
	db *sql.DB
}

// NewTemplateStore creates a new TemplateStore with the given database connection.
func NewTemplateStore(db *sql.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// FindByName retrieves a template by its unique name. Returns nil if not found.
func (s *TemplateStore) FindByName(ctx context.Context, name string) (*models.Template, error) {
	t := &models.Template{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, source, created_at, updated_at
		FROM templates WHERE name = $1
	`, name).Scan(&t.ID, &t.Name, &t.Source, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find template by name: %w", err)
	}
	return t, nil
}

// UpdatedAt returns the last modification time for a named template.
// The bool result is false when the template no longer exists. This is
// the cheap staleness probe used by loader predicates — one indexed
// lookup, no source transfer.
func (s *TemplateStore) UpdatedAt(ctx context.Context, name string) (time.Time, bool, error) {
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, `
		SELECT updated_at FROM templates WHERE name = $1
	`, name).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("template updated_at: %w", err)
	}
	return updatedAt, true, nil
}

// ListNames returns all template names ordered alphabetically.
func (s *TemplateStore) ListNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list template names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan template name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Upsert inserts a template or replaces its source, bumping updated_at.
func (s *TemplateStore) Upsert(ctx context.Context, name, source string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (name, source)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET source = EXCLUDED.source, updated_at = NOW()
	`, name, source)
	if err != nil {
		return fmt.Errorf("upsert template: %w", err)
	}
	return nil
}

// Delete removes a template by name.
func (s *TemplateStore) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM templates WHERE name = $1`, name); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return nil
}
