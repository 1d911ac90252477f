package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"tmplpress/internal/engine"
	"tmplpress/internal/loader"
)

// testRouter mounts the public handlers the same way the real router
// does, so chi URL parameters resolve in tests.
func testRouter(p *Public) chi.Router {
	r := chi.NewRouter()
	r.Get("/templates", p.List)
	r.Get("/t/*", p.Render)
	return r
}

func testEnv(templates map[string]string) *engine.Environment {
	return engine.New(loader.NewMapLoader(templates))
}

func TestRenderTemplate(t *testing.T) {
	env := testEnv(map[string]string{
		"index.html":      "<h1>{{ title }}</h1>",
		"pages/deep.html": "nested",
	})
	r := testRouter(NewPublic(env, nil))

	req := httptest.NewRequest(http.MethodGet, "/t/index.html?title=Welcome", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if got := rr.Body.String(); got != "<h1>Welcome</h1>" {
		t.Errorf("body: got %q", got)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type: got %q", ct)
	}
}

func TestRenderNestedTemplateName(t *testing.T) {
	env := testEnv(map[string]string{"pages/deep.html": "nested"})
	r := testRouter(NewPublic(env, nil))

	req := httptest.NewRequest(http.MethodGet, "/t/pages/deep.html", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "nested" {
		t.Errorf("body: got %q", rr.Body.String())
	}
}

func TestRenderTemplateNotFound(t *testing.T) {
	r := testRouter(NewPublic(testEnv(nil), nil))

	req := httptest.NewRequest(http.MethodGet, "/t/missing.html", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}

func TestRenderBrokenTemplateIs500(t *testing.T) {
	env := testEnv(map[string]string{"broken.html": "{{ unclosed"})
	r := testRouter(NewPublic(env, nil))

	req := httptest.NewRequest(http.MethodGet, "/t/broken.html", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
}

func TestListTemplates(t *testing.T) {
	env := testEnv(map[string]string{"b.html": "B", "a.html": "A"})
	r := testRouter(NewPublic(env, nil))

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}

	var body struct {
		Templates []string `json:"templates"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"a.html", "b.html"}
	if len(body.Templates) != len(want) {
		t.Fatalf("got %v", body.Templates)
	}
	for i := range want {
		if body.Templates[i] != want[i] {
			t.Errorf("templates[%d] = %q, want %q", i, body.Templates[i], want[i])
		}
	}
}

func TestListTemplatesNotSupported(t *testing.T) {
	// A bare function loader cannot enumerate its templates.
	env := engine.New(loader.NewFuncLoader(func(string) (*loader.Source, error) {
		return nil, nil
	}))
	r := testRouter(NewPublic(env, nil))

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", rr.Code)
	}
}
