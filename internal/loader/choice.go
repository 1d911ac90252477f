package loader

import (
	"context"
	"sort"
)

// ChoiceLoader tries a list of loaders in order and serves from the
// first one that resolves a name. A child failing with anything other
// than not-found aborts the search and surfaces that error unchanged;
// only when every child reports not-found does the composed lookup fail.
//
// Each child's context capability is resolved once at construction, so
// the context-aware surface uses a child's native GetSourceContext when
// it has one and calls the blocking GetSource inline when it does not.
type ChoiceLoader struct {
	loaders []Loader
	ctxGets []func(ctx context.Context, name string) (*Source, error)
}

// NewChoiceLoader composes the given loaders, tried in order.
func NewChoiceLoader(loaders ...Loader) *ChoiceLoader {
	l := &ChoiceLoader{loaders: loaders}
	l.ctxGets = make([]func(ctx context.Context, name string) (*Source, error), len(loaders))
	for i, child := range loaders {
		if cl, ok := child.(ContextLoader); ok {
			l.ctxGets[i] = cl.GetSourceContext
		}
	}
	return l
}

// GetSource tries each child in order.
func (l *ChoiceLoader) GetSource(name string) (*Source, error) {
	for _, child := range l.loaders {
		src, err := child.GetSource(name)
		if err == nil {
			return src, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, &NotFoundError{Name: name}
}

// GetSourceContext tries each child in order, preferring a child's
// native context-aware lookup when it has one.
func (l *ChoiceLoader) GetSourceContext(ctx context.Context, name string) (*Source, error) {
	for i, child := range l.loaders {
		var src *Source
		var err error
		if get := l.ctxGets[i]; get != nil {
			src, err = get(ctx, name)
		} else {
			src, err = child.GetSource(name)
		}
		if err == nil {
			return src, nil
		}
		if !IsNotFound(err) {
			return nil, err
		}
	}
	return nil, &NotFoundError{Name: name}
}

// ListTemplates returns the sorted union of all children's listings.
// A child that cannot enumerate fails the whole listing with
// ErrNoListing.
func (l *ChoiceLoader) ListTemplates() ([]string, error) {
	seen := make(map[string]bool)
	for _, child := range l.loaders {
		lister, ok := child.(Lister)
		if !ok {
			return nil, ErrNoListing
		}
		names, err := lister.ListTemplates()
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
