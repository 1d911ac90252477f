package engine

import (
	"io"
	"sync"

	"tmplpress/internal/compiler"
)

// Template is a ready-to-render instance: a compiled program plus the
// globals it was resolved with and the staleness predicate captured
// from its source. Instances are shared through the instance cache, so
// globals mutation is guarded — a cache hit updates the globals of the
// existing object in place rather than building a new one.
type Template struct {
	name     string
	filename string
	program  *compiler.Program
	upToDate func() bool

	mu      sync.Mutex
	globals map[string]any
}

func newTemplate(name, filename string, program *compiler.Program, globals map[string]any, upToDate func() bool) *Template {
	if globals == nil {
		globals = make(map[string]any)
	}
	return &Template{
		name:     name,
		filename: filename,
		program:  program,
		globals:  globals,
		upToDate: upToDate,
	}
}

// Name returns the logical template name.
func (t *Template) Name() string { return t.name }

// Filename returns the origin path or identifier, if the loader
// supplied one.
func (t *Template) Filename() string { return t.filename }

// isUpToDate reports whether the source this instance was compiled from
// is still current. A source without a predicate is always current.
func (t *Template) isUpToDate() bool {
	if t.upToDate == nil {
		return true
	}
	return t.upToDate()
}

// updateGlobals merges new globals into the instance. Called on every
// cache hit so a reused compiled body still sees the latest values.
func (t *Template) updateGlobals(globals map[string]any) {
	if len(globals) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for k, v := range globals {
		t.globals[k] = v
	}
}

// renderVars builds the variable map for one render: globals first,
// then the per-call data on top.
func (t *Template) renderVars(data map[string]any) map[string]any {
	t.mu.Lock()
	defer t.mu.Unlock()

	vars := make(map[string]any, len(t.globals)+len(data))
	for k, v := range t.globals {
		vars[k] = v
	}
	for k, v := range data {
		vars[k] = v
	}
	return vars
}

// Render executes the template with the given data and returns the
// output. Data overrides globals on name collisions.
func (t *Template) Render(data map[string]any) (string, error) {
	return t.program.ExecuteString(t.renderVars(data))
}

// RenderTo executes the template, writing output to w.
func (t *Template) RenderTo(w io.Writer, data map[string]any) error {
	return t.program.Execute(w, t.renderVars(data))
}
