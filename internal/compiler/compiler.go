// Package compiler turns template source text into a flat, serializable
// instruction list. The template language is intentionally small: literal
// text plus {{ name }} substitutions with dotted lookup into the render
// context. The compiled Program is the unit stored in the bytecode cache,
// so every field must survive a gob round-trip.
package compiler

import (
	"fmt"
	"html"
	"io"
	"strings"
)

// FormatVersion identifies the Program instruction format. It participates
// in the engine's configuration digest so cached bytecode compiled by an
// older format never deserializes into a newer runtime.
const FormatVersion = 1

// OpKind selects how an Op's argument is emitted.
type OpKind uint8

const (
	// OpText emits the argument verbatim.
	OpText OpKind = iota
	// OpVar looks the argument up in the render context and emits the
	// result, HTML-escaped when the program was compiled with autoescape.
	OpVar
)

// Op is a single instruction. Fields are exported for gob encoding.
type Op struct {
	Kind OpKind
	Arg  string
	Line int
}

// Program is a compiled template body.
type Program struct {
	Name       string
	Autoescape bool
	Ops        []Op
}

// Config holds the compiler settings that affect code generation.
// Anything added here must also feed the engine's configuration digest.
type Config struct {
	Autoescape bool
}

// SyntaxError reports a compile failure with the template name and the
// 1-based source line where it occurred.
type SyntaxError struct {
	Name string
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("template %q line %d: %s", e.Name, e.Line, e.Msg)
}

// Compile parses source into a Program. name is the logical template name,
// used only for diagnostics and cache metadata.
func Compile(source, name string, cfg Config) (*Program, error) {
	p := &Program{Name: name, Autoescape: cfg.Autoescape}
	line := 1
	rest := source

	for {
		open := strings.Index(rest, "{{")
		if open < 0 {
			if rest != "" {
				p.Ops = append(p.Ops, Op{Kind: OpText, Arg: rest, Line: line})
			}
			return p, nil
		}

		if open > 0 {
			text := rest[:open]
			p.Ops = append(p.Ops, Op{Kind: OpText, Arg: text, Line: line})
			line += strings.Count(text, "\n")
		}

		rest = rest[open+2:]
		end := strings.Index(rest, "}}")
		if end < 0 {
			return nil, &SyntaxError{Name: name, Line: line, Msg: "unclosed variable expression"}
		}

		expr := strings.TrimSpace(rest[:end])
		if err := checkIdent(expr); err != nil {
			return nil, &SyntaxError{Name: name, Line: line, Msg: err.Error()}
		}

		p.Ops = append(p.Ops, Op{Kind: OpVar, Arg: expr, Line: line})
		line += strings.Count(rest[:end], "\n")
		rest = rest[end+2:]
	}
}

// checkIdent validates a dotted variable reference such as "user.name".
func checkIdent(expr string) error {
	if expr == "" {
		return fmt.Errorf("empty variable expression")
	}
	for _, part := range strings.Split(expr, ".") {
		if part == "" {
			return fmt.Errorf("malformed variable reference %q", expr)
		}
		for i, r := range part {
			switch {
			case r == '_',
				r >= 'a' && r <= 'z',
				r >= 'A' && r <= 'Z':
			case r >= '0' && r <= '9':
				if i == 0 {
					return fmt.Errorf("malformed variable reference %q", expr)
				}
			default:
				return fmt.Errorf("malformed variable reference %q", expr)
			}
		}
	}
	return nil
}

// Execute runs the program against vars, writing output to w.
// Unresolved variables emit nothing.
func (p *Program) Execute(w io.Writer, vars map[string]any) error {
	for _, op := range p.Ops {
		var out string
		switch op.Kind {
		case OpText:
			out = op.Arg
		case OpVar:
			val, ok := lookup(vars, op.Arg)
			if !ok {
				continue
			}
			out = fmt.Sprint(val)
			if p.Autoescape {
				out = html.EscapeString(out)
			}
		}
		if _, err := io.WriteString(w, out); err != nil {
			return fmt.Errorf("execute %q: %w", p.Name, err)
		}
	}
	return nil
}

// ExecuteString runs the program and returns the output as a string.
func (p *Program) ExecuteString(vars map[string]any) (string, error) {
	var b strings.Builder
	if err := p.Execute(&b, vars); err != nil {
		return "", err
	}
	return b.String(), nil
}

// lookup resolves a dotted reference against nested map values.
func lookup(vars map[string]any, ref string) (any, bool) {
	parts := strings.Split(ref, ".")
	var cur any = vars
	for _, part := range parts {
		switch m := cur.(type) {
		case map[string]any:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]string:
			v, ok := m[part]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			return nil, false
		}
	}
	return cur, true
}
