// Package engine resolves template names into ready-to-render Template
// instances. Resolution runs a fixed pipeline: instance cache → loader
// → bytecode cache → compile on miss → bytecode store → instance cache
// store. Every public operation exists twice — a blocking form here and
// a context-aware mirror in environment_ctx.go — with identical
// behavior; the mirror differs only in threading a context into
// collaborators that natively accept one. A structural test keeps the
// two surfaces from drifting apart.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"tmplpress/internal/bccache"
	"tmplpress/internal/compiler"
	"tmplpress/internal/loader"
)

// DefaultCacheSize is the instance cache limit used by New.
const DefaultCacheSize = 400

// loaderHooks is the loader's capability descriptor, resolved once when
// the loader is attached instead of by per-call type assertion. A nil
// field means the loader lacks that capability.
type loaderHooks struct {
	list         func() ([]string, error)
	getSourceCtx func(ctx context.Context, name string) (*loader.Source, error)
	listCtx      func(ctx context.Context) ([]string, error)
}

// cacheHooks is the bytecode cache's capability descriptor.
type cacheHooks struct {
	load func(ctx context.Context, b *bccache.Bucket) error
	dump func(ctx context.Context, b *bccache.Bucket) error
}

// Environment drives template resolution. Configure it fully (loader,
// caches, autoescape, globals) before serving concurrent lookups;
// lookups themselves are safe to run concurrently.
type Environment struct {
	autoescape bool
	globals    map[string]any
	loader     loader.Loader
	hooks      loaderHooks
	bcc        bccache.Cache
	bcHooks    cacheHooks
	cache      *instanceCache
	cacheSize  int
}

// New creates an environment over the given loader with the default
// instance cache size and no bytecode cache.
func New(ld loader.Loader) *Environment {
	e := &Environment{
		globals:   make(map[string]any),
		cacheSize: DefaultCacheSize,
		cache:     newInstanceCache(DefaultCacheSize),
	}
	e.SetLoader(ld)
	return e
}

// SetLoader attaches a loader and resolves its capability descriptor.
func (e *Environment) SetLoader(ld loader.Loader) {
	e.loader = ld
	e.hooks = loaderHooks{}
	if l, ok := ld.(loader.Lister); ok {
		e.hooks.list = l.ListTemplates
	}
	if l, ok := ld.(loader.ContextLoader); ok {
		e.hooks.getSourceCtx = l.GetSourceContext
	}
	if l, ok := ld.(loader.ContextLister); ok {
		e.hooks.listCtx = l.ListTemplatesContext
	}
}

// SetBytecodeCache attaches a persistent bytecode cache. Passing nil
// removes it; the environment behaves identically either way, minus the
// cross-process reuse.
func (e *Environment) SetBytecodeCache(c bccache.Cache) {
	e.bcc = c
	e.bcHooks = cacheHooks{}
	if cc, ok := c.(bccache.ContextCache); ok {
		e.bcHooks.load = cc.LoadBytecodeContext
		e.bcHooks.dump = cc.DumpBytecodeContext
	}
}

// SetCacheSize resizes the instance cache: 0 disables instance caching
// entirely, a negative value retains instances without bound, and a
// positive value enforces LRU eviction. Resizing drops current entries.
func (e *Environment) SetCacheSize(size int) {
	e.cacheSize = size
	if size == 0 {
		e.cache = nil
		return
	}
	e.cache = newInstanceCache(size)
}

// SetAutoescape toggles HTML escaping of substituted variables. This
// affects code generation, so flipping it changes every fingerprint.
func (e *Environment) SetAutoescape(on bool) {
	e.autoescape = on
}

// SetGlobal sets an environment-wide default variable, visible to every
// template resolved afterwards.
func (e *Environment) SetGlobal(name string, value any) {
	e.globals[name] = value
}

// mergedGlobals layers per-call globals over the environment defaults.
func (e *Environment) mergedGlobals(globals map[string]any) map[string]any {
	merged := make(map[string]any, len(e.globals)+len(globals))
	for k, v := range e.globals {
		merged[k] = v
	}
	for k, v := range globals {
		merged[k] = v
	}
	return merged
}

// getSource asks the loader for a template's source.
func (e *Environment) getSource(name string) (*loader.Source, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	return e.loader.GetSource(name)
}

// listLoaderTemplates enumerates the loader's templates.
func (e *Environment) listLoaderTemplates() ([]string, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	if e.hooks.list == nil {
		return nil, loader.ErrNoListing
	}
	return e.hooks.list()
}

// loadBytecode consults the bytecode cache; a no-op without one.
func (e *Environment) loadBytecode(b *bccache.Bucket) error {
	if e.bcc == nil {
		return nil
	}
	return e.bcc.LoadBytecode(b)
}

// dumpBytecode stores into the bytecode cache; a no-op without one.
func (e *Environment) dumpBytecode(b *bccache.Bucket) error {
	if e.bcc == nil {
		return nil
	}
	return e.bcc.DumpBytecode(b)
}

// loadTemplate is the single place the hit/miss decision tree executes:
// instance cache (with staleness re-validation and in-place globals
// update), then loader, then bytecode cache, then compiler. The
// bytecode store is best-effort — a failed dump is logged and the
// freshly compiled template is served anyway.
func (e *Environment) loadTemplate(name string, globals map[string]any) (*Template, error) {
	key := instanceKey{name: name, globalsFP: globalsFingerprint(globals)}

	if e.cache != nil {
		if tmpl, ok := e.cache.get(key); ok {
			if tmpl.isUpToDate() {
				tmpl.updateGlobals(globals)
				return tmpl, nil
			}
			e.cache.remove(key)
		}
	}

	src, err := e.getSource(name)
	if err != nil {
		return nil, err
	}

	bucket := bccache.NewBucket(e.fingerprint(name, src.Text))
	if err := e.loadBytecode(bucket); err != nil {
		return nil, err
	}

	program := bucket.Program()
	if program == nil {
		program, err = compiler.Compile(src.Text, name, compiler.Config{Autoescape: e.autoescape})
		if err != nil {
			return nil, err
		}
		bucket.SetProgram(program)
		if err := e.dumpBytecode(bucket); err != nil {
			slog.Warn("bytecode dump failed", "name", name, "error", err)
		}
	}

	tmpl := newTemplate(name, src.Filename, program, e.mergedGlobals(globals), src.UpToDate)
	if e.cache != nil {
		e.cache.put(key, tmpl)
	}
	return tmpl, nil
}

// GetTemplate resolves a single template name. globals may be nil; when
// the instance is served from cache its globals are updated in place.
func (e *Environment) GetTemplate(name string, globals map[string]any) (*Template, error) {
	return e.loadTemplate(name, globals)
}

// SelectTemplate tries candidate names in order and returns the first
// that resolves. Only not-found outcomes advance to the next candidate;
// any other failure (a syntax error, a loader I/O error) aborts
// immediately and surfaces unchanged. When every candidate is missing
// the error names them all.
func (e *Environment) SelectTemplate(names []string, globals map[string]any) (*Template, error) {
	for _, name := range names {
		tmpl, err := e.loadTemplate(name, globals)
		if err == nil {
			return tmpl, nil
		}
		if !loader.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, &NoneFoundError{Names: names}
}

// GetOrSelectTemplate dispatches on the reference's shape: a *Template
// passes through unchanged, a string resolves like GetTemplate, and a
// []string selects like SelectTemplate.
func (e *Environment) GetOrSelectTemplate(ref any, globals map[string]any) (*Template, error) {
	switch v := ref.(type) {
	case *Template:
		return v, nil
	case string:
		return e.GetTemplate(v, globals)
	case []string:
		return e.SelectTemplate(v, globals)
	default:
		return nil, fmt.Errorf("unsupported template reference type %T", ref)
	}
}

// ListTemplates returns the loader's template names, or
// loader.ErrNoListing when the loader cannot enumerate.
func (e *Environment) ListTemplates() ([]string, error) {
	return e.listLoaderTemplates()
}

// CompileTemplates eagerly resolves every listable template, populating
// the bytecode cache for later processes. pattern filters names with
// path.Match semantics (empty matches all). Templates that individually
// fail are skipped and reported; the batch always runs to completion.
// With ignoreErrors the per-template failures are only logged.
func (e *Environment) CompileTemplates(pattern string, ignoreErrors bool) error {
	names, err := e.listLoaderTemplates()
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range names {
		if !matchesFilter(pattern, name) {
			continue
		}
		if _, err := e.loadTemplate(name, nil); err != nil {
			slog.Warn("template warm-up failed", "name", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if ignoreErrors {
		return nil
	}
	return errors.Join(errs...)
}

// matchesFilter reports whether name passes the path.Match filter. An
// empty pattern matches everything; a malformed pattern matches nothing.
func matchesFilter(pattern, name string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}
