package loader

import (
	"context"
	"fmt"

	"tmplpress/internal/store"
)

// DatabaseLoader serves templates from the templates table via a
// TemplateStore. Database I/O is context-aware end to end, so this
// loader implements the native context forms and the plain forms just
// run them with a background context.
//
// The UpToDate predicate re-reads only the row's updated_at column — a
// single indexed lookup, never the source text.
type DatabaseLoader struct {
	store *store.TemplateStore
}

// NewDatabaseLoader creates a loader over the given template store.
func NewDatabaseLoader(s *store.TemplateStore) *DatabaseLoader {
	return &DatabaseLoader{store: s}
}

// GetSource resolves name with a background context.
func (l *DatabaseLoader) GetSource(name string) (*Source, error) {
	return l.GetSourceContext(context.Background(), name)
}

// GetSourceContext resolves name against the templates table.
func (l *DatabaseLoader) GetSourceContext(ctx context.Context, name string) (*Source, error) {
	t, err := l.store.FindByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("database loader: %w", err)
	}
	if t == nil {
		return nil, &NotFoundError{Name: name}
	}

	loadedAt := t.UpdatedAt
	return &Source{
		Text:     t.Source,
		Filename: "db:" + name,
		UpToDate: func() bool {
			cur, ok, err := l.store.UpdatedAt(context.Background(), name)
			if err != nil || !ok {
				return false
			}
			return cur.Equal(loadedAt)
		},
	}, nil
}

// ListTemplates enumerates all template names with a background context.
func (l *DatabaseLoader) ListTemplates() ([]string, error) {
	return l.ListTemplatesContext(context.Background())
}

// ListTemplatesContext enumerates all template names.
func (l *DatabaseLoader) ListTemplatesContext(ctx context.Context) ([]string, error) {
	names, err := l.store.ListNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("database loader: %w", err)
	}
	return names, nil
}
