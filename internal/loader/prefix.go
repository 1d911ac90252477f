package loader

import (
	"context"
	"sort"
	"strings"
)

// PrefixLoader routes template names to child loaders by their first
// path segment: with delimiter "/", "mail/welcome.txt" is served by the
// loader mounted under "mail", which sees the name "welcome.txt".
// Child not-found errors are re-reported under the full requested name.
type PrefixLoader struct {
	mapping   map[string]Loader
	delimiter string
}

// NewPrefixLoader creates a prefix router over the given mapping using
// "/" as the delimiter.
func NewPrefixLoader(mapping map[string]Loader) *PrefixLoader {
	return &PrefixLoader{mapping: mapping, delimiter: "/"}
}

// split resolves the child loader and the remainder of the name.
func (l *PrefixLoader) split(name string) (Loader, string, bool) {
	prefix, rest, found := strings.Cut(name, l.delimiter)
	if !found {
		return nil, "", false
	}
	child, ok := l.mapping[prefix]
	if !ok {
		return nil, "", false
	}
	return child, rest, true
}

// GetSource routes the lookup to the child mounted under the name's
// prefix.
func (l *PrefixLoader) GetSource(name string) (*Source, error) {
	child, rest, ok := l.split(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	src, err := child.GetSource(rest)
	if IsNotFound(err) {
		return nil, &NotFoundError{Name: name}
	}
	return src, err
}

// GetSourceContext routes the lookup like GetSource, preferring the
// child's native context-aware form when it has one.
func (l *PrefixLoader) GetSourceContext(ctx context.Context, name string) (*Source, error) {
	child, rest, ok := l.split(name)
	if !ok {
		return nil, &NotFoundError{Name: name}
	}

	var src *Source
	var err error
	if cl, isCtx := child.(ContextLoader); isCtx {
		src, err = cl.GetSourceContext(ctx, rest)
	} else {
		src, err = child.GetSource(rest)
	}
	if IsNotFound(err) {
		return nil, &NotFoundError{Name: name}
	}
	return src, err
}

// ListTemplates enumerates every child, prepending its mount prefix.
func (l *PrefixLoader) ListTemplates() ([]string, error) {
	var names []string
	for prefix, child := range l.mapping {
		lister, ok := child.(Lister)
		if !ok {
			return nil, ErrNoListing
		}
		children, err := lister.ListTemplates()
		if err != nil {
			return nil, err
		}
		for _, name := range children {
			names = append(names, prefix+l.delimiter+name)
		}
	}
	sort.Strings(names)
	return names, nil
}
