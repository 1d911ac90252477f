package loader

import "context"

// LoadFunc resolves a template name to its source. Returning (nil, nil)
// means the name is unknown; the loader converts that to a NotFoundError.
type LoadFunc func(name string) (*Source, error)

// FuncLoader delegates resolution to a caller-supplied function. It has
// no context-aware form, so the engine's context surface falls back to
// calling it inline.
type FuncLoader struct {
	fn LoadFunc
}

// NewFuncLoader creates a loader backed by fn.
func NewFuncLoader(fn LoadFunc) *FuncLoader {
	return &FuncLoader{fn: fn}
}

// GetSource invokes the load function.
func (l *FuncLoader) GetSource(name string) (*Source, error) {
	src, err := l.fn(name)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &NotFoundError{Name: name}
	}
	return src, nil
}

// ContextLoadFunc is the context-aware counterpart of LoadFunc.
type ContextLoadFunc func(ctx context.Context, name string) (*Source, error)

// ContextFuncLoader delegates resolution to a context-aware function.
// It implements both Loader and ContextLoader, so the engine's context
// surface uses the native form and never blocks on the plain one.
type ContextFuncLoader struct {
	fn ContextLoadFunc
}

// NewContextFuncLoader creates a loader backed by fn.
func NewContextFuncLoader(fn ContextLoadFunc) *ContextFuncLoader {
	return &ContextFuncLoader{fn: fn}
}

// GetSource invokes the load function with a background context.
func (l *ContextFuncLoader) GetSource(name string) (*Source, error) {
	return l.GetSourceContext(context.Background(), name)
}

// GetSourceContext invokes the load function.
func (l *ContextFuncLoader) GetSourceContext(ctx context.Context, name string) (*Source, error) {
	src, err := l.fn(ctx, name)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &NotFoundError{Name: name}
	}
	return src, nil
}
