// environment_ctx.go is the context-aware mirror of environment.go.
// Each ...Context method must stay behaviorally identical to its
// blocking counterpart: same outcomes, same side effects, same ordering
// of sub-calls. The only permitted difference is that loader and
// bytecode-cache calls go through the context bridges below, which
// prefer a collaborator's native context form and otherwise run the
// blocking form inline on the caller's goroutine. TestSurfaceParity
// enforces the mirroring structurally — edit both files together.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tmplpress/internal/bccache"
	"tmplpress/internal/compiler"
	"tmplpress/internal/loader"
)

// getSourceContext asks the loader for a template's source, using the
// loader's native context form when it has one. Without one, a loader
// backed by slow I/O blocks here; keep such loaders context-aware.
func (e *Environment) getSourceContext(ctx context.Context, name string) (*loader.Source, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	if get := e.hooks.getSourceCtx; get != nil {
		return get(ctx, name)
	}
	return e.loader.GetSource(name)
}

// listLoaderTemplatesContext enumerates the loader's templates,
// preferring the native context form.
func (e *Environment) listLoaderTemplatesContext(ctx context.Context) ([]string, error) {
	if e.loader == nil {
		return nil, ErrNoLoader
	}
	if list := e.hooks.listCtx; list != nil {
		return list(ctx)
	}
	if e.hooks.list == nil {
		return nil, loader.ErrNoListing
	}
	return e.hooks.list()
}

// loadBytecodeContext consults the bytecode cache, preferring its
// native context form; a no-op without a cache.
func (e *Environment) loadBytecodeContext(ctx context.Context, b *bccache.Bucket) error {
	if e.bcc == nil {
		return nil
	}
	if load := e.bcHooks.load; load != nil {
		return load(ctx, b)
	}
	return e.bcc.LoadBytecode(b)
}

// dumpBytecodeContext stores into the bytecode cache, preferring its
// native context form; a no-op without a cache.
func (e *Environment) dumpBytecodeContext(ctx context.Context, b *bccache.Bucket) error {
	if e.bcc == nil {
		return nil
	}
	if dump := e.bcHooks.dump; dump != nil {
		return dump(ctx, b)
	}
	return e.bcc.DumpBytecode(b)
}

// loadTemplateContext mirrors loadTemplate.
func (e *Environment) loadTemplateContext(ctx context.Context, name string, globals map[string]any) (*Template, error) {
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

	src, err := e.getSourceContext(ctx, name)
	if err != nil {
		return nil, err
	}

	bucket := bccache.NewBucket(e.fingerprint(name, src.Text))
	if err := e.loadBytecodeContext(ctx, bucket); err != nil {
		return nil, err
	}

	program := bucket.Program()
	if program == nil {
		program, err = compiler.Compile(src.Text, name, compiler.Config{Autoescape: e.autoescape})
		if err != nil {
			return nil, err
		}
		bucket.SetProgram(program)
		if err := e.dumpBytecodeContext(ctx, bucket); err != nil {
			slog.Warn("bytecode dump failed", "name", name, "error", err)
		}
	}

	tmpl := newTemplate(name, src.Filename, program, e.mergedGlobals(globals), src.UpToDate)
	if e.cache != nil {
		e.cache.put(key, tmpl)
	}
	return tmpl, nil
}

// GetTemplateContext mirrors GetTemplate.
func (e *Environment) GetTemplateContext(ctx context.Context, name string, globals map[string]any) (*Template, error) {
	return e.loadTemplateContext(ctx, name, globals)
}

// SelectTemplateContext mirrors SelectTemplate.
func (e *Environment) SelectTemplateContext(ctx context.Context, names []string, globals map[string]any) (*Template, error) {
	for _, name := range names {
		tmpl, err := e.loadTemplateContext(ctx, name, globals)
		if err == nil {
			return tmpl, nil
		}
		if !loader.IsNotFound(err) {
			return nil, err
		}
	}
	return nil, &NoneFoundError{Names: names}
}

// GetOrSelectTemplateContext mirrors GetOrSelectTemplate.
func (e *Environment) GetOrSelectTemplateContext(ctx context.Context, ref any, globals map[string]any) (*Template, error) {
	switch v := ref.(type) {
	case *Template:
		return v, nil
	case string:
		return e.GetTemplateContext(ctx, v, globals)
	case []string:
		return e.SelectTemplateContext(ctx, v, globals)
	default:
		return nil, fmt.Errorf("unsupported template reference type %T", ref)
	}
}

// ListTemplatesContext mirrors ListTemplates.
func (e *Environment) ListTemplatesContext(ctx context.Context) ([]string, error) {
	return e.listLoaderTemplatesContext(ctx)
}

// CompileTemplatesContext mirrors CompileTemplates.
func (e *Environment) CompileTemplatesContext(ctx context.Context, pattern string, ignoreErrors bool) error {
	names, err := e.listLoaderTemplatesContext(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, name := range names {
		if !matchesFilter(pattern, name) {
			continue
		}
		if _, err := e.loadTemplateContext(ctx, name, nil); err != nil {
			slog.Warn("template warm-up failed", "name", name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}

	if ignoreErrors {
		return nil
	}
	return errors.Join(errs...)
}
