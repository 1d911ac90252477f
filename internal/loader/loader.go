// Package loader defines how template source text is obtained by name.
// Loaders are pluggable: the engine only needs GetSource, and optionally
// ListTemplates for enumeration. A loader backed by real I/O can also
// implement the context-aware variants; the engine detects those once at
// attach time and prefers them on its context-aware call surface.
package loader

import (
	"context"
	"errors"
	"fmt"
)

// Source is the result of resolving a template name: the source text, the
// origin path or identifier when one exists, and a cheap staleness check
// captured at load time. UpToDate must never re-read and re-parse the
// source to answer; a nil UpToDate means the source is always current.
type Source struct {
	Text     string
	Filename string
	UpToDate func() bool
}

// Loader supplies template source text by name.
type Loader interface {
	// GetSource returns the source for name, or a *NotFoundError when the
	// loader cannot resolve it.
	GetSource(name string) (*Source, error)
}

// ContextLoader is implemented by loaders whose lookup can honor a
// context, typically because it performs network or database I/O. The
// engine's context-aware surface calls GetSourceContext when available
// and otherwise invokes GetSource inline — which means a slow loader
// without a context form blocks the caller for the duration of the
// lookup.
type ContextLoader interface {
	GetSourceContext(ctx context.Context, name string) (*Source, error)
}

// Lister is implemented by loaders that can enumerate their templates.
type Lister interface {
	// ListTemplates returns all template names in sorted order.
	ListTemplates() ([]string, error)
}

// ContextLister is the context-aware form of Lister.
type ContextLister interface {
	ListTemplatesContext(ctx context.Context) ([]string, error)
}

// ErrNoListing is returned by ListTemplates when a loader has no way to
// enumerate its templates (for example, a function-backed loader).
var ErrNoListing = errors.New("loader does not support listing templates")

// NotFoundError reports that a loader could not resolve a template name.
// It crosses every layer of the engine unchanged.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("template %q not found", e.Name)
}

// IsNotFound reports whether err is a loader not-found outcome.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
