package compiler

import (
	"bytes"
	"encoding/gob"
	"errors"
	"strings"
	"testing"
)

func mustCompile(t *testing.T, source string, cfg Config) *Program {
	t.Helper()
	p, err := Compile(source, "t.html", cfg)
	if err != nil {
		t.Fatalf("compile %q: %v", source, err)
	}
	return p
}

func TestCompileAndExecute(t *testing.T) {
	tests := []struct {
		name   string
		source string
		vars   map[string]any
		want   string
	}{
		{"plain text", "hello world", nil, "hello world"},
		{"single variable", "Hello {{ name }}!", map[string]any{"name": "Go"}, "Hello Go!"},
		{"no padding", "{{v}}", map[string]any{"v": "x"}, "x"},
		{"multiple variables", "{{ a }}-{{ b }}", map[string]any{"a": 1, "b": 2}, "1-2"},
		{"missing variable emits nothing", "[{{ nope }}]", nil, "[]"},
		{"dotted lookup", "{{ user.name }}", map[string]any{"user": map[string]any{"name": "ada"}}, "ada"},
		{"dotted lookup into string map", "{{ env.home }}", map[string]any{"env": map[string]string{"home": "/root"}}, "/root"},
		{"dotted miss", "[{{ user.age }}]", map[string]any{"user": map[string]any{"name": "ada"}}, "[]"},
		{"lookup through non-map", "[{{ user.name }}]", map[string]any{"user": 7}, "[]"},
		{"non-string value", "{{ n }}", map[string]any{"n": 42}, "42"},
		{"empty source", "", map[string]any{"v": "x"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustCompile(t, tt.source, Config{})
			out, err := p.ExecuteString(tt.vars)
			if err != nil {
				t.Fatalf("execute: %v", err)
			}
			if out != tt.want {
				t.Errorf("got %q, want %q", out, tt.want)
			}
		})
	}
}

func TestAutoescape(t *testing.T) {
	vars := map[string]any{"v": `<b>&"bold"</b>`}

	p := mustCompile(t, "{{ v }}", Config{Autoescape: true})
	out, err := p.ExecuteString(vars)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.ContainsAny(out, "<>\"") {
		t.Errorf("autoescaped output still contains raw HTML: %q", out)
	}

	// Literal text is never escaped, only substituted values.
	p = mustCompile(t, "<p>{{ v }}</p>", Config{Autoescape: true})
	out, err = p.ExecuteString(vars)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out, "<p>") || !strings.HasSuffix(out, "</p>") {
		t.Errorf("literal markup was escaped: %q", out)
	}

	p = mustCompile(t, "{{ v }}", Config{})
	out, err = p.ExecuteString(vars)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != vars["v"] {
		t.Errorf("autoescape off must emit verbatim, got %q", out)
	}
}

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		wantLine int
	}{
		{"unclosed expression", "hello {{ name", 1},
		{"empty expression", "{{ }}", 1},
		{"bad identifier", "{{ 1abc }}", 1},
		{"dangling dot", "{{ user. }}", 1},
		{"operator not supported", "{{ a + b }}", 1},
		{"error on later line", "line one\nline two\n{{ bad! }}", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.source, "t.html", Config{})
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
			}
			if se.Name != "t.html" {
				t.Errorf("error names template %q", se.Name)
			}
			if se.Line != tt.wantLine {
				t.Errorf("error at line %d, want %d", se.Line, tt.wantLine)
			}
		})
	}
}

func TestLineTracking(t *testing.T) {
	p := mustCompile(t, "a\nb\n{{ v }}\n{{ w }}", Config{})

	var vLine, wLine int
	for _, op := range p.Ops {
		if op.Kind != OpVar {
			continue
		}
		switch op.Arg {
		case "v":
			vLine = op.Line
		case "w":
			wLine = op.Line
		}
	}
	if vLine != 3 {
		t.Errorf("v compiled at line %d, want 3", vLine)
	}
	if wLine != 4 {
		t.Errorf("w compiled at line %d, want 4", wLine)
	}
}

func TestProgramGobRoundTrip(t *testing.T) {
	p := mustCompile(t, "Hello {{ who }}, {{ n }} times", Config{Autoescape: true})

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(p); err != nil {
		t.Fatalf("encode: %v", err)
	}
	var restored Program
	if err := gob.NewDecoder(&buf).Decode(&restored); err != nil {
		t.Fatalf("decode: %v", err)
	}

	vars := map[string]any{"who": "go", "n": 2}
	want, err := p.ExecuteString(vars)
	if err != nil {
		t.Fatalf("execute original: %v", err)
	}
	got, err := restored.ExecuteString(vars)
	if err != nil {
		t.Fatalf("execute restored: %v", err)
	}
	if got != want {
		t.Errorf("restored program renders %q, original %q", got, want)
	}
	if !restored.Autoescape {
		t.Error("autoescape flag lost in round trip")
	}
}
