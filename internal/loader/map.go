package loader

import (
	"sort"
	"sync"
)

// MapLoader serves templates from an in-memory name-to-source mapping.
// Mutating the mapping invalidates previously loaded sources: the
// UpToDate predicate captured at load time compares against the current
// mapping content.
type MapLoader struct {
	mu        sync.RWMutex
	templates map[string]string
}

// NewMapLoader creates a loader over a copy of the given mapping.
func NewMapLoader(templates map[string]string) *MapLoader {
	m := make(map[string]string, len(templates))
	for k, v := range templates {
		m[k] = v
	}
	return &MapLoader{templates: m}
}

// GetSource returns the mapped source text for name.
func (l *MapLoader) GetSource(name string) (*Source, error) {
	l.mu.RLock()
	text, ok := l.templates[name]
	l.mu.RUnlock()

	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	return &Source{
		Text: text,
		UpToDate: func() bool {
			l.mu.RLock()
			defer l.mu.RUnlock()
			cur, ok := l.templates[name]
			return ok && cur == text
		},
	}, nil
}

// ListTemplates returns all mapped names in sorted order.
func (l *MapLoader) ListTemplates() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Set adds or replaces a template, invalidating any previously loaded
// source for that name.
func (l *MapLoader) Set(name, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[name] = text
}

// Delete removes a template from the mapping.
func (l *MapLoader) Delete(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.templates, name)
}
